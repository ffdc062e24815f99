// Package api is the HTTP client for the chat backend: plain
// request/response calls for projects, conversations, messages and admin
// actions, plus the streaming chat endpoint consumed by the session
// controller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/visionbi/strand/pkg/chat"
)

type Client struct {
	baseURL string
	// httpClient serves request/response calls and carries the overall
	// timeout. Streaming requests go through streamClient, which must not
	// have one: a generation legitimately outlives any fixed deadline.
	httpClient   *http.Client
	streamClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second)
}

func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

func (c *Client) ListProjects(ctx context.Context) ([]chat.Project, error) {
	var out []chat.Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, name, systemInstructions string) (chat.Project, error) {
	var out chat.Project
	in := createProjectRequest{Name: name, SystemInstructions: systemInstructions}
	if err := c.doJSON(ctx, http.MethodPost, "/projects", in, &out); err != nil {
		return chat.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id int64) (chat.Project, error) {
	var out chat.Project
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &out); err != nil {
		return chat.Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) ListConversations(ctx context.Context, projectID int64) ([]chat.Conversation, error) {
	var out []chat.Conversation
	path := fmt.Sprintf("/projects/%d/conversations", projectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, projectID int64, title string) (chat.Conversation, error) {
	var out chat.Conversation
	path := fmt.Sprintf("/projects/%d/conversations", projectID)
	if err := c.doJSON(ctx, http.MethodPost, path, createConversationRequest{Title: title}, &out); err != nil {
		return chat.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}
	return out, nil
}

func (c *Client) RenameConversation(ctx context.Context, id int64, title string) (chat.Conversation, error) {
	var out chat.Conversation
	path := fmt.Sprintf("/projects/conversations/%d", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, renameConversationRequest{Title: title}, &out); err != nil {
		return chat.Conversation{}, fmt.Errorf("failed to rename conversation %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/projects/conversations/%d", id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete conversation %d: %w", id, err)
	}
	return nil
}

func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]chat.Message, error) {
	var out []chat.Message
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return out, nil
}

// UpdateUserRole changes a user's role. Callers use this through the
// optimistic mutation path and classify failures with IsRateLimited and
// IsForbidden.
func (c *Client) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	path := fmt.Sprintf("/admin/users/%d/role", userID)
	if err := c.doJSON(ctx, http.MethodPatch, path, updateRoleRequest{Role: role}, nil); err != nil {
		return fmt.Errorf("failed to update role for user %d: %w", userID, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return HealthStatus{}, fmt.Errorf("health check failed: %w", err)
	}
	return out, nil
}

// doJSON issues one request/response call. A nil in skips the body, a nil
// out discards the response.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError drains the response body for the backend's error detail.
func statusError(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &detail) == nil && detail.Detail != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: detail.Detail}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
}
