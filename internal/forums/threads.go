package forums

import (
	"context"
	"fmt"
	"net/url"

	"github.com/reaxo-dev/reaxo/internal/domain"
)

type ListThreadsParams struct {
	Limit  int
	Filter string // "newest" | "oldest"
	TagId  string
	Cursor string
}

type ThreadsPage struct {
	Threads []domain.Thread `json:"threads"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"hasMore,omitempty"`
}

type CreateThreadParams struct {
	Title        string              `json:"title"`
	Body         string              `json:"body"`
	UserId       string              `json:"userId"`
	Tags         []string            `json:"tags,omitempty"`
	ExtendedData domain.ExtendedData `json:"extendedData,omitempty"`
}

type UpdateThreadParams struct {
	Title        string              `json:"title,omitempty"`
	Body         string              `json:"body,omitempty"`
	UserId       string              `json:"userId"`
	ExtendedData domain.ExtendedData `json:"extendedData,omitempty"`
}

func (c *Client) ListThreads(ctx context.Context, p ListThreadsParams) (*ThreadsPage, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.TagId != "" {
		q.Set("tagId", p.TagId)
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	path := "/threads"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ThreadsPage
	if err := c.doJSON(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetThread(ctx context.Context, id string) (*domain.Thread, error) {
	var thread domain.Thread
	if err := c.doJSON(ctx, "GET", "/threads/"+url.PathEscape(id), nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) CreateThread(ctx context.Context, p CreateThreadParams) (*domain.Thread, error) {
	var thread domain.Thread
	if err := c.doJSON(ctx, "POST", "/threads", p, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) UpdateThread(ctx context.Context, id string, p UpdateThreadParams) (*domain.Thread, error) {
	var thread domain.Thread
	if err := c.doJSON(ctx, "PUT", "/threads/"+url.PathEscape(id), p, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) DeleteThread(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/threads/"+url.PathEscape(id), nil, nil)
}

func (c *Client) LikeThread(ctx context.Context, id string) error {
	return c.doJSON(ctx, "POST", "/threads/"+url.PathEscape(id)+"/like", nil, nil)
}

func (c *Client) UnlikeThread(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/threads/"+url.PathEscape(id)+"/like", nil, nil)
}

// GetThreadPosts returns the flat reply list of a thread. Filter follows
// the upstream convention ("oldest" gives stable arrival order, which the
// reply tree builder depends on).
func (c *Client) GetThreadPosts(ctx context.Context, id, filter string) ([]domain.Post, error) {
	path := "/threads/" + url.PathEscape(id) + "/posts"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	var out struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := c.doJSON(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}
