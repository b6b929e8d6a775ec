package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const titleMaxRunes = 50

// Message is one turn in a conversation. Assistant messages produced by a
// stage generation carry the stage in StageType; free-form continuation
// replies leave it empty.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	StageType Stage  `json:"stage_type,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage builds a message stamped with the current wall clock.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Content: text, Timestamp: time.Now().UnixMilli()}
}

// Conversation is one logical session: the creator's settings plus the
// ordered message transcript. A fresh session gets a fresh Conversation;
// the ID never changes for the lifetime of the session.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Platform    string    `json:"platform"`
	Niche       string    `json:"niche"`
	Goal        string    `json:"goal"`
	Personality string    `json:"personality"`
	Audience    []string  `json:"audience"`
	Messages    []Message `json:"messages"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
}

// NewConversation creates an empty conversation for the given settings.
func NewConversation(platform, niche, goal, personality string, audience []string) *Conversation {
	now := time.Now().UnixMilli()
	return &Conversation{
		ID:          uuid.NewString(),
		Platform:    platform,
		Niche:       niche,
		Goal:        goal,
		Personality: personality,
		Audience:    append([]string(nil), audience...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Append adds a message and bumps UpdatedAt. The first user message also
// seeds the title.
func (c *Conversation) Append(m Message) {
	c.Messages = append(c.Messages, m)
	if c.Title == "" && m.Role == RoleUser {
		c.Title = DeriveTitle(m.Content)
	}
	c.Touch()
}

// Touch advances UpdatedAt. The timestamp is strictly monotonic per
// conversation so that repeated mutations within one millisecond still
// order correctly in the store.
func (c *Conversation) Touch() {
	now := time.Now().UnixMilli()
	if now <= c.UpdatedAt {
		now = c.UpdatedAt + 1
	}
	c.UpdatedAt = now
}

// Clone returns a deep copy safe to hand to another goroutine (the
// debounced saver serializes a snapshot while the orchestrator may still
// be mutating the original).
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Audience = append([]string(nil), c.Audience...)
	out.Messages = append([]Message(nil), c.Messages...)
	return &out
}

// DeriveTitle truncates text to a display title of at most 50 runes,
// appending an ellipsis when cut.
func DeriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(line)
	}
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + "..."
}
