package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionBusy: the session already has a generation in flight.
	// Callers must wait for or cancel it instead of fanning out turns.
	ErrSessionBusy = errors.New("session busy: a generation is already in progress")
	// ErrSessionNotFound: the key does not resolve to a live session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPromptNotFound: the prompt id is not in the catalog.
	ErrPromptNotFound = errors.New("prompt not found")
)

// MalformedOutputError reports a guided-mode response that could not be
// parsed as JSON. Raw retains the full model output for diagnosis.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}
