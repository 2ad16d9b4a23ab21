package chat

import "time"

// Role tags the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one committed conversation turn. An in-progress assistant
// buffer is never exposed as a Message; history only ever contains
// completed exchanges.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
