package api

// ChatStreamRequest is the body of POST /chat/stream. Optional fields are
// omitted when zero and default server-side from the project settings.
type ChatStreamRequest struct {
	ProjectID       int64   `json:"project_id"`
	ConversationID  int64   `json:"conversation_id"`
	UserText        string  `json:"user_text"`
	Stream          bool    `json:"stream"`
	Temperature     float64 `json:"temperature,omitempty"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	UseRAG          bool    `json:"use_rag,omitempty"`
	ModelID         string  `json:"model_id,omitempty"`
	AgentID         int64   `json:"agent_id,omitempty"`
	SystemOverride  string  `json:"system_override,omitempty"`
	HistoryStrategy string  `json:"history_strategy,omitempty"`
}

type createProjectRequest struct {
	Name               string `json:"name"`
	SystemInstructions string `json:"system_instructions,omitempty"`
}

type createConversationRequest struct {
	Title string `json:"title,omitempty"`
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HealthStatus is the backend's health report.
type HealthStatus struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}
