// Package articles is a typed client for the /articles REST resource.
package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samvad-hq/samvad-articles/internal/domain"
	"github.com/samvad-hq/samvad-articles/pkg/httpclient"
)

const (
	pathArticles = "/articles"
	pathArticle  = "/articles/{id}"
	pathPaged    = "/articles/paged"
	pathSearch   = "/articles/search"
)

// Client performs CRUD calls against /articles. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	http httpclient.Client
	log  Logger
}

// New returns a Client issuing requests through transport.
func New(transport httpclient.Client, log Logger) *Client {
	return &Client{http: transport, log: ensureLogger(log)}
}

// Create posts a and returns the record the server stored.
func (c *Client) Create(ctx context.Context, a domain.Article) (*domain.Article, error) {
	const op = "create article"
	var out domain.Article
	if err := c.call(ctx, op, &httpclient.Request{
		Method: http.MethodPost,
		Path:   pathArticles,
		Body:   a,
	}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadOne fetches the article with the given id.
func (c *Client) ReadOne(ctx context.Context, id int64) (*domain.Article, error) {
	const op = "read article"
	var out domain.Article
	if err := c.call(ctx, op, &httpclient.Request{
		Method:     http.MethodGet,
		Path:       pathArticle,
		PathParams: idParam(id),
	}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadAll lists every article in server order.
func (c *Client) ReadAll(ctx context.Context) ([]domain.Article, error) {
	return c.list(ctx, "list articles", pathArticles, nil)
}

// ReadPage lists one zero-based page of at most limit articles.
func (c *Client) ReadPage(ctx context.Context, page, limit int) ([]domain.Article, error) {
	if page < 0 || limit <= 0 {
		return nil, fmt.Errorf("read page %d limit %d: %w", page, limit, ErrInvalidArgument)
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return c.list(ctx, "list article page", pathPaged, q)
}

// Search lists articles matching q. The query is sent verbatim and encoded once.
func (c *Client) Search(ctx context.Context, q string) ([]domain.Article, error) {
	return c.list(ctx, "search articles", pathSearch, url.Values{"q": {q}})
}

// Update replaces the article with the given id. A nil article with a nil error
// means the server accepted the update without echoing a body.
func (c *Client) Update(ctx context.Context, id int64, a domain.Article) (*domain.Article, error) {
	const op = "update article"
	var out domain.Article
	err := c.call(ctx, op, &httpclient.Request{
		Method:     http.MethodPut,
		Path:       pathArticle,
		PathParams: idParam(id),
		Body:       a,
	}, &out, true)
	if errors.Is(err, errEmptyBody) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the article with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.call(ctx, "delete article", &httpclient.Request{
		Method:     http.MethodDelete,
		Path:       pathArticle,
		PathParams: idParam(id),
	}, nil, true)
}

func (c *Client) list(ctx context.Context, op, path string, q url.Values) ([]domain.Article, error) {
	var out []domain.Article
	if err := c.call(ctx, op, &httpclient.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q,
	}, &out, false); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Article{}
	}
	return out, nil
}

var (
	errEmptyBody = errors.New("empty response body")
	jsonNull     = []byte("null")
)

// call executes req and decodes a 2xx body into dst. With dst nil the body is ignored.
// An empty or JSON null body is a DecodeError unless emptyOK, in which case
// errEmptyBody is returned.
func (c *Client) call(ctx context.Context, op string, req *httpclient.Request, dst any, emptyOK bool) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("articles request failed", "articles_transport_error", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return &TransportError{Op: op, Err: err}
	}

	code := resp.StatusCode()
	c.log.DebugObj("articles response", "articles_response", map[string]any{
		"op":      op,
		"method":  req.Method,
		"path":    req.Path,
		"status":  code,
		"headers": resp.Header(),
	})
	if code < 200 || code > 299 {
		return statusError(op, code, resp.Body())
	}
	if dst == nil {
		return nil
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, jsonNull) {
		if emptyOK {
			return errEmptyBody
		}
		return &DecodeError{Op: op, Err: errEmptyBody}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	c.log.DebugObj("articles response decoded", "articles_decoded", map[string]any{
		"op":   op,
		"type": fmt.Sprintf("%T", dst),
	})
	return nil
}

func idParam(id int64) map[string]string {
	return map[string]string{"id": strconv.FormatInt(id, 10)}
}
