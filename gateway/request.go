package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Request describes an outbound backend call. Values are treated as
// immutable: the retry path derives a new Request with an incremented
// Attempt rather than mutating the original, so a request can never be
// replayed more than once after a refresh.
type Request struct {
	Method string
	Path   string // relative to the backend base URL, e.g. "/auth/me"
	Header http.Header
	Body   []byte

	// Attempt counts prior transmissions of this logical request. A 401
	// triggers the refresh protocol only at attempt zero; a second 401 on
	// the retried request is terminal for the caller.
	Attempt int
}

// NewRequest builds a request for the given method and backend path.
func NewRequest(method, path string) Request {
	return Request{Method: method, Path: path, Header: http.Header{}}
}

// WithJSONBody returns a copy of the request carrying the marshalled body.
func (r Request) WithJSONBody(v any) (Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return r, errors.Wrapf(err, "[Request.WithJSONBody] %s %s", r.Method, r.Path)
	}
	r.Body = body
	return r, nil
}

// retried returns the request to replay after a successful refresh.
func (r Request) retried() Request {
	r.Attempt++
	return r
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return errors.Wrap(err, "[Response.DecodeJSON] unmarshal body")
	}
	return nil
}
