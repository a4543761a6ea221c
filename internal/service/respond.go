package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/reaxo-dev/reaxo/internal/ai"
	"github.com/reaxo-dev/reaxo/internal/content"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/logger"
)

const systemInstruction = `You are Reaxo AI, a helpful and creative AI assistant participating in a forum discussion.
You have been mentioned by a user who wants your input.
Be concise, helpful, and engaging. Keep your response focused and relevant to the discussion.
Write your response in Markdown.
Do not include any @ mentions in your response.`

const (
	chatApology  = "I apologize, I couldn't generate a response."
	imageApology = "I apologize, but I couldn't generate an image at this time. Please try again with a different description."

	imagePromptSuffix = ", high quality, detailed, professional"
	maxImagePromptLen = 500
)

// ErrReplyInFlight is returned when an AI reply for the same triggering
// post is already being generated; duplicate triggers are dropped rather
// than producing duplicate replies.
var ErrReplyInFlight = &internal_errors.ErrorWithStatusCode{Message: "AI reply already in progress for this post", StatusCode: 409}

type ChatBackend interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

type ImageBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type PostCreator interface {
	CreatePost(ctx context.Context, p forums.CreatePostParams) (*domain.Post, error)
}

// Responder turns a mention into a second, system-authored reply. All
// backend failures are converted into an apology reply plus a non-fatal
// error flag; nothing escapes this boundary except reply-creation errors
// themselves.
type Responder struct {
	posts        PostCreator
	chat         ChatBackend
	image        ImageBackend
	systemUserId string
	timeout      time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{} // keyed by triggering post id (thread id when absent)
}

func NewResponder(posts PostCreator, chat ChatBackend, image ImageBackend, systemUserId string, timeout time.Duration) *Responder {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Responder{
		posts:        posts,
		chat:         chat,
		image:        image,
		systemUserId: systemUserId,
		timeout:      timeout,
		inFlight:     make(map[string]struct{}),
	}
}

// RespondRequest carries the mention context assembled by the caller.
type RespondRequest struct {
	ThreadId     string
	ThreadTitle  string
	ThreadBody   string // rich content preferred
	ReplyContent string // the triggering reply, raw
	MentionedBy  string
	ParentPostId string // triggering post; the AI reply nests under it
}

type RespondResult struct {
	Success        bool
	Reply          *domain.Post
	AIResponse     string // rich HTML the reply carries
	GeneratedImage string
	FailureReason  string
}

// Trigger dispatches on the mention found in the triggering reply, image
// taking priority over chat. It returns nil, nil when no mention is
// present.
func (r *Responder) Trigger(ctx context.Context, req RespondRequest) (*RespondResult, error) {
	switch DetectMention(req.ReplyContent) {
	case MentionImage:
		return r.GenerateImage(ctx, req)
	case MentionChat:
		return r.Respond(ctx, req)
	default:
		return nil, nil
	}
}

// Respond handles chat mentions: builds the conversation context, calls
// the chat backend and posts the answer as the system identity.
func (r *Responder) Respond(ctx context.Context, req RespondRequest) (*RespondResult, error) {
	release, err := r.acquire(req.key())
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	answer, err := r.chat.Complete(callCtx, []ai.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: buildChatContext(req)},
	})
	cancel()
	failed := err != nil
	if failed {
		logger.Log.Error("chat backend call failed", "thread", req.ThreadId, "err", err)
		answer = chatApology
	} else if answer == "" {
		answer = chatApology
	}

	// The apology path reaches here with the call deadline already spent,
	// so the reply gets its own budget, detached from caller cancellation.
	postCtx, cancelPost := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancelPost()

	richHTML := content.RenderMarkdown(answer)
	reply, err := r.createReply(postCtx, req, content.StripMarkup(richHTML), richHTML, domain.ExtendedData{
		"richContent":  richHTML,
		"isAiResponse": true,
	})
	if err != nil {
		return nil, err
	}

	result := &RespondResult{Success: !failed, Reply: reply, AIResponse: richHTML}
	if failed {
		result.FailureReason = "Failed to generate AI response"
	}
	return result, nil
}

// GenerateImage handles image mentions: derives a prompt, calls the image
// backend and posts the result (or an apology on failure) as the system
// identity.
func (r *Responder) GenerateImage(ctx context.Context, req RespondRequest) (*RespondResult, error) {
	release, err := r.acquire(req.key())
	if err != nil {
		return nil, err
	}
	defer release()

	prompt := BuildImagePrompt(req.ReplyContent, req.ThreadTitle, req.ThreadBody)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	imageURL, err := r.image.Generate(callCtx, prompt)
	cancel()

	// Whatever the backend did, the reply still has to land; give it a
	// fresh budget detached from caller cancellation.
	postCtx, cancelPost := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancelPost()

	if err != nil {
		logger.Log.Error("image backend call failed", "thread", req.ThreadId, "err", err)

		richHTML := "<p>" + imageApology + "</p>"
		reply, createErr := r.createReply(postCtx, req, imageApology, richHTML, domain.ExtendedData{
			"richContent":     richHTML,
			"isAiResponse":    true,
			"isImageResponse": true,
			"imagePrompt":     prompt,
		})
		if createErr != nil {
			return nil, createErr
		}
		return &RespondResult{Reply: reply, AIResponse: richHTML, FailureReason: "Failed to generate image"}, nil
	}

	caption := imageCaption(prompt)
	richHTML := fmt.Sprintf(`<p>%s</p><img src=%q alt="AI Generated Image" class="mt-3 rounded-lg max-w-full">`,
		html.EscapeString(caption), imageURL)

	reply, err := r.createReply(postCtx, req, caption, richHTML, domain.ExtendedData{
		"richContent":     richHTML,
		"isAiResponse":    true,
		"isImageResponse": true,
		"generatedImage":  imageURL,
		"imagePrompt":     prompt,
	})
	if err != nil {
		return nil, err
	}
	return &RespondResult{Success: true, Reply: reply, AIResponse: richHTML, GeneratedImage: imageURL}, nil
}

func (r *Responder) createReply(ctx context.Context, req RespondRequest, body, richHTML string, extended domain.ExtendedData) (*domain.Post, error) {
	return r.posts.CreatePost(ctx, forums.CreatePostParams{
		ThreadId:     req.ThreadId,
		Body:         content.PadBody(body),
		UserId:       r.systemUserId,
		ParentId:     req.ParentPostId,
		ExtendedData: extended,
	})
}

func (r *Responder) acquire(key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return nil, ErrReplyInFlight
	}
	r.inFlight[key] = struct{}{}
	return func() {
		r.mu.Lock()
		delete(r.inFlight, key)
		r.mu.Unlock()
	}, nil
}

func (req RespondRequest) key() string {
	if req.ParentPostId != "" {
		return req.ParentPostId
	}
	return req.ThreadId
}

func buildChatContext(req RespondRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread Title: %q\n\n", req.ThreadTitle)
	if req.ThreadBody != "" {
		fmt.Fprintf(&b, "Original Post:\n%s\n\n", content.StripMarkup(req.ThreadBody))
	}
	mentionedBy := req.MentionedBy
	if mentionedBy == "" {
		mentionedBy = "Someone"
	}
	fmt.Fprintf(&b, "User %s mentioned you and said:\n%s", mentionedBy, content.StripMarkup(req.ReplyContent))
	return b.String()
}

var imageMentionRegex = regexp.MustCompile(`(?i)@image`)

// BuildImagePrompt derives the image prompt from the triggering reply if
// it carries real instructions, falling back to thread context otherwise.
// Fixed quality suffix terms are always appended and the result is capped
// at 500 characters.
func BuildImagePrompt(replyContent, threadTitle, threadBody string) string {
	instructions := strings.TrimSpace(imageMentionRegex.ReplaceAllString(content.StripMarkup(replyContent), ""))

	var prompt string
	if len(instructions) > 5 {
		prompt = instructions
	} else {
		body := truncateRunes(content.StripMarkup(threadBody), 200)
		prompt = threadTitle + ". " + body
	}

	prompt += imagePromptSuffix
	return truncateRunes(prompt, maxImagePromptLen)
}

func imageCaption(prompt string) string {
	shown := truncateRunes(prompt, 100)
	ellipsis := ""
	if shown != prompt {
		ellipsis = "..."
	}
	return fmt.Sprintf("Here's the image I generated based on %q%s", shown, ellipsis)
}

// truncateRunes caps s at max runes so a cut never lands inside a
// multibyte sequence.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
