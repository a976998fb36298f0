package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedResponse is returned for 2xx responses that cannot be
// decoded or do not confirm the requested action.
var ErrUnexpectedResponse = errors.New("unexpected backend response")

// TransportError wraps a failure to obtain any response at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.Code, body)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}

// IsBackendFailure reports whether err is one of the failure kinds that
// come from talking to the backend, as opposed to a local rejection.
func IsBackendFailure(err error) bool {
	var te *TransportError
	var se *StatusError
	return errors.As(err, &te) || errors.As(err, &se) || errors.Is(err, ErrUnexpectedResponse)
}
