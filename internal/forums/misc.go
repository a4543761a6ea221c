package forums

import (
	"context"
	"fmt"
	"net/url"

	"github.com/reaxo-dev/reaxo/internal/domain"
)

func (c *Client) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var out struct {
		Tags []domain.Tag `json:"tags"`
	}
	if err := c.doJSON(ctx, "GET", "/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (c *Client) CreateTag(ctx context.Context, name, description string) (*domain.Tag, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}
	var tag domain.Tag
	if err := c.doJSON(ctx, "POST", "/tags", body, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	path := "/users"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Users []domain.User `json:"users"`
	}
	if err := c.doJSON(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, "GET", "/users/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type SearchResult struct {
	Threads []domain.Thread `json:"threads"`
	Posts   []domain.Post   `json:"posts"`
	Users   []domain.User   `json:"users"`
}

func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	var res SearchResult
	if err := c.doJSON(ctx, "GET", "/search?q="+url.QueryEscape(query), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.doJSON(ctx, "GET", "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
