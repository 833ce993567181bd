package atalogics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/atalogics/pkg/cache"
)

// Response is a classified API response: the HTTP status and the JSON body.
// 400 and 404 are responses, not errors; check Code before decoding.
type Response struct {
	Code int
	Body json.RawMessage

	// Cached is set when the response was served from the cache.
	Cached bool
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// OK reports whether the status is 200.
func (r *Response) OK() bool { return r.Code == 200 }

func (r *Response) String() string {
	return fmt.Sprintf("%d %s", r.Code, r.Body)
}

func fromEntry(e cache.Entry) *Response {
	return &Response{Code: e.Code, Body: e.Body}
}

// normalizeBody turns raw response bytes into a JSON value. Empty bodies
// become null, the form the cache stores them in, and non-JSON text is kept
// as a JSON string.
func normalizeBody(data []byte) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(data) {
		return json.RawMessage(data)
	}
	quoted, _ := json.Marshal(string(data))
	return quoted
}
