package articles

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidArgument is returned before any request is made when arguments are out of range.
var ErrInvalidArgument = errors.New("invalid argument")

// TransportError wraps a failure of the underlying transport (connection, DNS, timeout).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: http status %d: %s", e.Op, e.Code, e.Body)
}

// NotFoundError is the StatusError returned for 404 responses.
type NotFoundError struct {
	*StatusError
}

func (e *NotFoundError) Unwrap() error { return e.StatusError }

// DecodeError reports a response body that does not match the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func statusError(op string, code int, body []byte) error {
	se := &StatusError{Op: op, Code: code, Body: bodySnippet(body)}
	if code == http.StatusNotFound {
		return &NotFoundError{StatusError: se}
	}
	return se
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
