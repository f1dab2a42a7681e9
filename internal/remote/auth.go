package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (r authResponse) result() (*domain.User, error) {
	if r.User.ID == "" {
		return nil, fmt.Errorf("auth response without user id: %w", domain.ErrUnavailable)
	}
	u := r.User
	if r.Token != "" {
		u.Token = r.Token
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return resp.result()
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp); err != nil {
		return nil, err
	}
	return resp.result()
}
