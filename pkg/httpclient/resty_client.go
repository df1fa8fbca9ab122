package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient rooted at baseURL with the specified timeout.
func NewRestyClient(baseURL string, timeout time.Duration) *RestyClient {
	c := newRestyBaseClient(timeout)
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	return &RestyClient{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return c
}

// Do executes req. Path params are escaped by resty and query values are encoded once.
func (r *RestyClient) Do(ctx context.Context, req *Request) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request must not be nil")
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.PathParams) > 0 {
		rr.SetPathParams(req.PathParams)
	}
	if len(req.Query) > 0 {
		rr.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		rr.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}

	resp, err := rr.Execute(method, req.Path)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
