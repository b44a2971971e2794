package exnest

import (
	"context"
	"net/http"
	"net/url"
)

// Models fetches the gateway's model catalog.
func (c *Client) Models(ctx context.Context) ([]Model, *Response, error) {
	resp, err := c.Execute(ctx, &requestSpec{
		method: http.MethodGet,
		path:   "/models",
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Data == nil {
		return nil, resp, nil
	}
	return resp.Data.Models, resp, nil
}

// ModelInfo fetches the catalog entry for one model ID.
func (c *Client) ModelInfo(ctx context.Context, modelID string) (*Model, *Response, error) {
	if modelID == "" {
		return nil, nil, &ValidationError{Field: "modelID", Reason: "must be non-empty"}
	}
	resp, err := c.Execute(ctx, &requestSpec{
		method: http.MethodGet,
		path:   "/models/" + url.PathEscape(modelID),
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Data == nil || len(resp.Data.Models) == 0 {
		return nil, resp, nil
	}
	return &resp.Data.Models[0], resp, nil
}

// ModelsByProvider fetches the catalog filtered to one provider.
func (c *Client) ModelsByProvider(ctx context.Context, provider string) ([]Model, *Response, error) {
	if provider == "" {
		return nil, nil, &ValidationError{Field: "provider", Reason: "must be non-empty"}
	}
	resp, err := c.Execute(ctx, &requestSpec{
		method: http.MethodGet,
		path:   "/models",
		query:  url.Values{"provider": {provider}},
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Data == nil {
		return nil, resp, nil
	}
	return resp.Data.Models, resp, nil
}
