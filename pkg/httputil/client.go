package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize bounds how much of a response body is read into memory.
const maxBodySize = 8 << 20

// Doer sends an HTTP request and returns its response.
// *http.Client satisfies Doer; tests substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient creates an HTTP client with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// ReadBody reads and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("read body: response larger than %d bytes", maxBodySize)
	}
	return data, nil
}
