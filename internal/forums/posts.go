package forums

import (
	"context"
	"net/url"

	"github.com/reaxo-dev/reaxo/internal/domain"
)

type CreatePostParams struct {
	ThreadId     string              `json:"threadId"`
	Body         string              `json:"body"`
	UserId       string              `json:"userId"`
	ParentId     string              `json:"parentId,omitempty"`
	ExtendedData domain.ExtendedData `json:"extendedData,omitempty"`
}

type UpdatePostParams struct {
	Body         string              `json:"body,omitempty"`
	UserId       string              `json:"userId"`
	ExtendedData domain.ExtendedData `json:"extendedData,omitempty"`
}

func (c *Client) CreatePost(ctx context.Context, p CreatePostParams) (*domain.Post, error) {
	var post domain.Post
	if err := c.doJSON(ctx, "POST", "/posts", p, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := c.doJSON(ctx, "GET", "/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, p UpdatePostParams) (*domain.Post, error) {
	var post domain.Post
	if err := c.doJSON(ctx, "PUT", "/posts/"+url.PathEscape(id), p, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) LikePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, "POST", "/posts/"+url.PathEscape(id)+"/like", nil, nil)
}

func (c *Client) UnlikePost(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/posts/"+url.PathEscape(id)+"/like", nil, nil)
}
