package chat

import "time"

// Project groups conversations and carries the per-project generation
// defaults the backend applies when a request leaves them unset.
type Project struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	SystemInstructions string              `json:"system_instructions,omitempty"`
	Defaults           *GenerationDefaults `json:"defaults,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

type GenerationDefaults struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	ModelID     string  `json:"model_id,omitempty"`
}

type Conversation struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the slice of the account record the client mutates (role changes
// go through the optimistic mutation path).
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
