package forums

import (
	"context"

	"github.com/reaxo-dev/reaxo/internal/domain"
)

type LoginParams struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type RegisterParams struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func (c *Client) Login(ctx context.Context, p LoginParams) (*LoginResult, error) {
	var res LoginResult
	if err := c.doJSON(ctx, "POST", "/auth/login", p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, p RegisterParams) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, "POST", "/auth/register", p, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the user the client's token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, "GET", "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
