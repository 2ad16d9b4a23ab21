package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Backend failure taxonomy. All three are terminal for a single generation
// call and never corrupt session history.
var (
	// ErrBackendUnavailable: the provider could not be reached at all.
	ErrBackendUnavailable = errors.New("model backend unavailable")
	// ErrBackendRejected: the provider returned a structured rejection,
	// e.g. a content policy block or a rate limit. Not worth retrying.
	ErrBackendRejected = errors.New("model backend rejected the request")
	// ErrBackendTimeout: no chunk arrived within the inactivity window.
	ErrBackendTimeout = errors.New("model backend timed out")
)

// Classify maps a raw provider error onto the backend failure taxonomy,
// wrapping the original error. Context cancellation is passed through
// untouched so callers can tell a caller-side cancel from a backend fault.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, ErrBackendRejected),
		errors.Is(err, ErrBackendTimeout):
		return err
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func classifyStatus(status int, err error) error {
	switch {
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", ErrBackendRejected, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}
