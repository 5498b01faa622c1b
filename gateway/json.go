package gateway

import (
	"context"
	"net/http"
)

// GetJSON sends a GET request and decodes the response into out when out is
// non-nil.
func (g *Gateway) GetJSON(ctx context.Context, path string, out any) error {
	return g.sendJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON sends a POST request with the given body and decodes the response
// into out when out is non-nil.
func (g *Gateway) PostJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPost, path, in, out)
}

// PutJSON sends a PUT request with the given body and decodes the response
// into out when out is non-nil.
func (g *Gateway) PutJSON(ctx context.Context, path string, in, out any) error {
	return g.sendJSON(ctx, http.MethodPut, path, in, out)
}

// DeleteJSON sends a DELETE request and decodes the response into out when
// out is non-nil.
func (g *Gateway) DeleteJSON(ctx context.Context, path string, out any) error {
	return g.sendJSON(ctx, http.MethodDelete, path, nil, out)
}

func (g *Gateway) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := NewRequest(method, path)
	if in != nil {
		var err error
		req, err = req.WithJSONBody(in)
		if err != nil {
			return err
		}
	}

	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.DecodeJSON(out)
}
