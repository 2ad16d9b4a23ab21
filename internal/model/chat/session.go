package chat

import "time"

// SessionInfo is the externally visible description of a conversation,
// returned to clients so they can resume it by key on a later request.
type SessionInfo struct {
	Key         string    `json:"key"`
	Variant     string    `json:"variant"`
	Model       string    `json:"model"`
	Temperature *float32  `json:"temperature,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Messages    int       `json:"messages"`
}
