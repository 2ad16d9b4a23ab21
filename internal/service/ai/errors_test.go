package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestClassifyKeepsAlreadyClassifiedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: upstream said no", ErrBackendRejected)
	if got := Classify(wrapped); !errors.Is(got, ErrBackendRejected) {
		t.Fatalf("expected rejection preserved, got %v", got)
	}
}

func TestClassifyPassesThroughCancellation(t *testing.T) {
	if got := Classify(context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("expected cancellation passthrough, got %v", got)
	}
	if got := Classify(context.Canceled); errors.Is(got, ErrBackendUnavailable) {
		t.Fatal("cancellation must not be reported as a backend fault")
	}
}

func TestClassifyDeadlineAsTimeout(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); !errors.Is(got, ErrBackendTimeout) {
		t.Fatalf("expected timeout, got %v", got)
	}
}

func TestClassifyAPIErrorsByStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrBackendRejected},
		{http.StatusBadRequest, ErrBackendRejected},
		{http.StatusForbidden, ErrBackendRejected},
		{http.StatusInternalServerError, ErrBackendUnavailable},
		{http.StatusBadGateway, ErrBackendUnavailable},
	}

	for _, tc := range cases {
		err := &openai.APIError{HTTPStatusCode: tc.status, Message: "nope"}
		if got := Classify(err); !errors.Is(got, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}

func TestClassifyRequestErrorByStatus(t *testing.T) {
	err := &openai.RequestError{HTTPStatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}
	if got := Classify(err); !errors.Is(got, ErrBackendRejected) {
		t.Fatalf("expected rejection, got %v", got)
	}
}

func TestClassifyUnknownErrorsAsUnavailable(t *testing.T) {
	if got := Classify(errors.New("connection refused")); !errors.Is(got, ErrBackendUnavailable) {
		t.Fatalf("expected unavailable, got %v", got)
	}
}

func TestClassifyWrapsOriginalError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	got := Classify(cause)
	if got == nil || got.Error() == cause.Error() {
		t.Fatalf("expected taxonomy prefix on %v", got)
	}
}
