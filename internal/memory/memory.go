// Package memory keeps the chat history of each conversation with the math
// assistant.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message represents a single message in conversation history.
type Message struct {
	// ID is the unique identifier for the message.
	ID string `json:"id"`

	// Role is the sender role (user, assistant, system, tool).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is when the message was created.
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional information.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Memory is the interface for conversation memory stores.
type Memory interface {
	// Add stores a new message in memory.
	Add(ctx context.Context, msg Message) error

	// Get retrieves messages from memory.
	// The limit parameter controls how many recent messages to return.
	// If limit is 0, all messages are returned.
	Get(ctx context.Context, limit int) ([]Message, error)

	// Clear removes all messages from memory.
	Clear(ctx context.Context) error

	// Count returns the number of messages in memory.
	Count(ctx context.Context) (int, error)
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewMessageWithMetadata creates a new message with metadata.
func NewMessageWithMetadata(role, content string, metadata map[string]any) Message {
	msg := NewMessage(role, content)
	msg.Metadata = metadata
	return msg
}

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)
