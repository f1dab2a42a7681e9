package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/domain"
)

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out list[domain.Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Products lists the catalog, narrowed to one subcategory when it is set.
func (c *Client) Products(ctx context.Context, subcategory string) ([]domain.Product, error) {
	path := "/products"
	if subcategory != "" {
		path += "?subcategory=" + url.QueryEscape(subcategory)
	}
	var out list[domain.Product]
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id: %w", domain.ErrNotFound)
	}
	var out item[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Value, nil
}
