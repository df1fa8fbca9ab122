package httpclient

import (
	"context"
	"net/http"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Request describes one call. Path may hold {name} placeholders filled from PathParams.
type Request struct {
	Method     string
	Path       string
	PathParams map[string]string
	Query      url.Values
	Body       any
	Headers    map[string]string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
}
