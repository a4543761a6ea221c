package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/reaxo-dev/reaxo/internal/config"
)

// imageTask is the single-element task array the image backend expects.
type imageTask struct {
	TaskType       string  `json:"taskType"`
	TaskUUID       string  `json:"taskUUID"`
	OutputType     string  `json:"outputType"`
	OutputFormat   string  `json:"outputFormat"`
	PositivePrompt string  `json:"positivePrompt"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	Model          string  `json:"model"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"CFGScale"`
	NumberResults  int     `json:"numberResults"`
}

type imageResponse struct {
	Data []struct {
		ImageURL string `json:"imageURL"`
	} `json:"data"`
}

type ImageClient struct {
	url      string
	key      string
	model    string
	steps    int
	cfgScale float64
	httpCli  *http.Client
}

func NewImageClient(cfg config.AI, key string) *ImageClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ImageClient{
		url:      cfg.ImageURL,
		key:      key,
		model:    cfg.ImageModel,
		steps:    cfg.ImageSteps,
		cfgScale: cfg.ImageCFGScale,
		httpCli:  &http.Client{Timeout: timeout},
	}
}

// Generate requests exactly one square image for the prompt and returns
// its URL. An empty result set is an error; the orchestrator turns any
// error into the apology-reply path.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal([]imageTask{{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		OutputType:     "URL",
		OutputFormat:   "WEBP",
		PositivePrompt: prompt,
		Height:         1024,
		Width:          1024,
		Model:          c.model,
		Steps:          c.steps,
		CFGScale:       c.cfgScale,
		NumberResults:  1,
	}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("image backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("image backend error: %d %s", resp.StatusCode, string(raw))
	}

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("malformed image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].ImageURL == "" {
		return "", fmt.Errorf("image backend returned no results")
	}
	return parsed.Data[0].ImageURL, nil
}
