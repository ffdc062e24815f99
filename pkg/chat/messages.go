package chat

import (
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn in a conversation. Content and Meta are mutable only
// while Open is true, i.e. while an active stream is still filling the
// assistant message; everything else is fixed at creation.
type Message struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	Role           string        `json:"role"`
	Content        string        `json:"content"`
	Meta           *ResponseMeta `json:"meta,omitempty"`
	Open           bool          `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ResponseMeta carries the generation statistics the backend attaches to a
// completed assistant message.
type ResponseMeta struct {
	ElapsedSec      float64    `json:"elapsed_sec,omitempty"`
	TokensPerSec    float64    `json:"tokens_per_sec,omitempty"`
	Usage           *Usage     `json:"usage,omitempty"`
	Backend         string     `json:"backend"`
	ModelID         string     `json:"model_id"`
	Temperature     float64    `json:"temperature"`
	MaxTokens       int        `json:"max_tokens"`
	ConfidenceScore float64    `json:"confidence_score,omitempty"`
	LowConfidence   bool       `json:"low_confidence,omitempty"`
	Citations       []Citation `json:"citations,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

type Citation struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m Message) IsSystem() bool {
	return m.Role == RoleSystem
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}
