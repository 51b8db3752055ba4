package provider

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnsupported is returned, without any network call, when a source
	// does not carry the requested translation.
	ErrUnsupported = errors.New("translation not supported by source")

	// ErrEmptyResult is returned when a well-formed response holds no verses.
	ErrEmptyResult = errors.New("source returned no verses")
)

// HTTPError is a non-2xx response from a source.
type HTTPError struct {
	Source     string
	Status     int
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: unexpected status %d (retry after %s)", e.Source, e.Status, e.RetryAfter)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Source, e.Status)
}

// Throttled reports whether the source asked us to slow down.
func (e *HTTPError) Throttled() bool { return e.Status == http.StatusTooManyRequests }

// ParseError is a malformed response body.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: parse response: %v", e.Source, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// NewHTTPError builds an HTTPError from a response, honouring Retry-After
// given in seconds or as an HTTP date.
func NewHTTPError(source string, resp *http.Response) *HTTPError {
	return &HTTPError{
		Source:     source,
		Status:     resp.StatusCode,
		RetryAfter: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// IsRetryable reports whether err is transient: a 429, a 408, a 5xx or a
// transport-level failure. Cancellation of the caller's context is not
// retryable; callers check their own context first.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		s := httpErr.Status
		return s == http.StatusTooManyRequests || s == http.StatusRequestTimeout || (s >= 500 && s <= 599)
	}
	if errors.Is(err, ErrUnsupported) || errors.Is(err, ErrEmptyResult) {
		return false
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfterHint extracts the server-provided wait from err, if any.
func RetryAfterHint(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}
