package ghost

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrMalformedResponse marks a 2xx response whose body did not have the
	// expected shape. It is never retried.
	ErrMalformedResponse = errors.New("ghost: malformed response")

	// ErrNotFound is returned when a post lookup matches nothing.
	ErrNotFound = errors.New("ghost: not found")
)

// APIError is a non-2xx response from the Content or Admin API.
type APIError struct {
	API    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API %d: %s", e.API, e.Status, e.Body)
}

// IsTransient reports whether err is worth retrying: network failures,
// 5xx and 429 responses. Cancellation and malformed bodies are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsConflict reports whether err is an optimistic-concurrency rejection,
// i.e. the post changed between read and update.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

func truncateBody(b []byte) string {
	const limit = 300
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
