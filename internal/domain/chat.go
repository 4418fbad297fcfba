package domain

import "time"

// ChatRole distinguishes the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message in a per-(user, project) chat thread.
type ChatMessage struct {
	ID        string
	UserID    string
	ProjectID string
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}
