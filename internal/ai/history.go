package ai

import "sync"

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in the conversation history.
type Message struct {
	Role    Role
	Content string
}

// History maintains the ordered, append-only conversation sent to the
// model on every turn, trimming the oldest entries when the limit is
// reached.
type History struct {
	mu          sync.Mutex
	messages    []Message
	maxMessages int
}

// NewHistory creates a conversation history bounded to maxMessages.
func NewHistory(maxMessages int) *History {
	if maxMessages <= 0 {
		maxMessages = 40
	}
	return &History{
		messages:    make([]Message, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// Append adds a message to the conversation history. If the number of
// messages exceeds the limit, the oldest messages are trimmed while
// keeping the first message (which serves as initial context).
func (h *History) Append(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, Message{
		Role:    role,
		Content: content,
	})

	if len(h.messages) > h.maxMessages {
		trimmed := make([]Message, 0, h.maxMessages)
		trimmed = append(trimmed, h.messages[0])
		excess := len(h.messages) - h.maxMessages
		trimmed = append(trimmed, h.messages[1+excess:]...)
		h.messages = trimmed
	}
}

// Messages returns a copy of the current conversation messages.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Reset clears all messages from the conversation history.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = h.messages[:0]
}

// Len returns the number of messages in the conversation history.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.messages)
}
