package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/totals"
)

type image struct {
	URL string `json:"url"`
}

type product struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Stock  int     `json:"stock"`
	Images []image `json:"images"`
}

// productRef is the populated-or-not productId field of a cart line. The API
// sends the full product when it is still around, and a bare id or null once
// the product was deleted.
type productRef struct {
	product *product
}

func (p *productRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		p.product = nil
		return nil
	}
	var pr product
	if err := json.Unmarshal(b, &pr); err != nil {
		return err
	}
	p.product = &pr
	return nil
}

type cartLine struct {
	ID        string     `json:"_id"`
	ProductID productRef `json:"productId"`
	Quantity  int        `json:"quantity"`
	Size      string     `json:"size"`
	Color     string     `json:"color"`
}

type cartData struct {
	Cart struct {
		Items []cartLine `json:"items"`
	} `json:"cart"`
	Total float64 `json:"total"`
}

// Cart is the user's cart as the storefront API reports it.
type Cart struct {
	Items []totals.LineItem
	// Total is what the API computed over the whole cart; it is informational
	// only, checkout totals are always derived from Items.
	Total float64
}

func (d cartData) toCart() Cart {
	items := make([]totals.LineItem, 0, len(d.Cart.Items))
	for _, ln := range d.Cart.Items {
		if ln.ID == "" {
			continue
		}
		li := totals.LineItem{ID: ln.ID, Quantity: ln.Quantity}
		if p := ln.ProductID.product; p != nil {
			li.Product = &totals.Product{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Stock: p.Stock,
			}
			if len(p.Images) > 0 {
				li.Product.ImageURL = p.Images[0].URL
			}
		}
		if ln.Size != "" || ln.Color != "" {
			li.Variant = &totals.Variant{Size: ln.Size, Color: ln.Color}
		}
		items = append(items, li)
	}
	return Cart{Items: items, Total: d.Total}
}

func (c *Client) GetCart(ctx context.Context) (Cart, error) {
	var d cartData
	if err := c.do(ctx, "get_cart", http.MethodGet, "/cart", nil, &d); err != nil {
		return Cart{}, err
	}
	return d.toCart(), nil
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, "update_cart_item", http.MethodPut, "/cart/"+itemID, body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.do(ctx, "remove_cart_item", http.MethodDelete, "/cart/"+itemID, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, "clear_cart", http.MethodDelete, "/cart", nil, nil)
}
