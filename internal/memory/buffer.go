package memory

import (
	"context"
	"sync"
)

// BufferMemory implements Memory with an in-memory ring buffer.
// It stores the most recent N messages, discarding older ones.
type BufferMemory struct {
	messages []Message
	maxSize  int
	mu       sync.RWMutex
}

// DefaultBufferSize is the capacity used when none is configured.
const DefaultBufferSize = 100

// NewBufferMemory creates a new in-memory buffer holding up to maxSize
// messages.
func NewBufferMemory(maxSize int) *BufferMemory {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &BufferMemory{
		messages: make([]Message, 0, maxSize),
		maxSize:  maxSize,
	}
}

// Add stores a new message in the buffer.
// If the buffer is full, the oldest message is discarded.
func (b *BufferMemory) Add(_ context.Context, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.messages) >= b.maxSize {
		b.messages = append(b.messages[:0], b.messages[1:]...)
	}

	b.messages = append(b.messages, msg)
	return nil
}

// Get retrieves messages from the buffer.
// If limit is 0 or greater than buffer size, all messages are returned.
func (b *BufferMemory) Get(_ context.Context, limit int) ([]Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 || limit > len(b.messages) {
		limit = len(b.messages)
	}

	start := len(b.messages) - limit
	result := make([]Message, limit)
	copy(result, b.messages[start:])
	return result, nil
}

// Clear removes all messages from the buffer.
func (b *BufferMemory) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = b.messages[:0]
	return nil
}

// Count returns the number of messages in the buffer.
func (b *BufferMemory) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.messages), nil
}

var _ Memory = (*BufferMemory)(nil)
