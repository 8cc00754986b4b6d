package booking

import (
	"time"
)

const messageHistorySize = 20

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string
	Text      string
	Timestamp time.Time
}

// History is a bounded transcript of one conversation, oldest entries
// evicted first.
type History struct {
	messages []Message
}

func (h *History) add(role, text string, now time.Time) {
	msg := Message{
		Role:      role,
		Text:      text,
		Timestamp: now,
	}

	if len(h.messages) >= messageHistorySize {
		h.messages = append(h.messages[1:], msg)
	} else {
		h.messages = append(h.messages, msg)
	}
}

func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)

	return out
}
