package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

func cartPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/cart"
}

// UserCart fetches the server-side cart of an authenticated user.
func (c *Client) UserCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var out list[domain.CartItem]
	if err := c.do(ctx, http.MethodGet, cartPath(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AddCartItem(ctx context.Context, userID string, it domain.CartItem) error {
	return c.do(ctx, http.MethodPost, cartPath(userID)+"/items", it, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, userID, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPut, cartPath(userID)+"/items/"+url.PathEscape(itemID), body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, userID, itemID string) error {
	return c.do(ctx, http.MethodDelete, cartPath(userID)+"/items/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, cartPath(userID), nil, nil)
}
