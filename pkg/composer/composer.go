// Package composer is the orchestration point bound to the input surface:
// it enforces one active stream per composer, owns the cancellation handle
// for the in-flight session, and exposes the idle/streaming lifecycle to
// collaborators.
package composer

import (
	"context"
	"strings"
	"sync"

	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/logger"
	"github.com/visionbi/strand/pkg/notify"
	"github.com/visionbi/strand/pkg/session"
)

type State int

const (
	StateIdle State = iota
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Params are the generation parameters attached to each turn. Zero values
// defer to the project defaults on the backend.
type Params struct {
	Temperature     float64
	MaxTokens       int
	ModelID         string
	AgentID         int64
	UseRAG          bool
	SystemOverride  string
	HistoryStrategy string
}

type Composer struct {
	mu       sync.Mutex
	sessions *session.Controller
	notifier notify.Notifier

	projectID      int64
	conversationID int64
	draft          string
	params         Params

	state   State
	active  *session.Session
	cancel  context.CancelFunc
	runDone chan struct{}
}

func New(sessions *session.Controller, notifier notify.Notifier) *Composer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Composer{sessions: sessions, notifier: notifier}
}

// SelectConversation points the composer at a conversation. A session
// already streaming keeps writing to its own target message and is
// unaffected by the switch.
func (c *Composer) SelectConversation(projectID, conversationID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectID = projectID
	c.conversationID = conversationID
}

func (c *Composer) SetParams(p Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send opens a stream session for the current draft. It is accepted only
// when a conversation is selected, the draft is non-empty, and no session
// is active; otherwise it is a no-op and returns false. On acceptance the
// draft is cleared immediately, not when the response completes.
func (c *Composer) Send() bool {
	c.mu.Lock()
	if c.state != StateIdle || c.conversationID == 0 || strings.TrimSpace(c.draft) == "" {
		c.mu.Unlock()
		return false
	}

	text := c.draft
	c.draft = ""

	sess := c.sessions.Open(api.ChatStreamRequest{
		ProjectID:       c.projectID,
		ConversationID:  c.conversationID,
		UserText:        text,
		Temperature:     c.params.Temperature,
		MaxTokens:       c.params.MaxTokens,
		ModelID:         c.params.ModelID,
		AgentID:         c.params.AgentID,
		UseRAG:          c.params.UseRAG,
		SystemOverride:  c.params.SystemOverride,
		HistoryStrategy: c.params.HistoryStrategy,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.state = StateStreaming
	c.active = sess
	c.cancel = cancel
	c.runDone = done
	c.mu.Unlock()

	go c.run(ctx, sess, done)
	return true
}

func (c *Composer) run(ctx context.Context, sess *session.Session, done chan struct{}) {
	defer close(done)

	err := sess.Run(ctx)

	c.mu.Lock()
	if c.active == sess {
		c.state = StateIdle
		c.active = nil
		c.cancel = nil
	}
	c.mu.Unlock()

	if err != nil {
		logger.Error("stream session %s failed: %v", sess.ID, err)
		c.notifier.Failure("Response interrupted, the partial reply was kept")
	}
}

// Stop cancels the active session and returns to idle immediately, without
// waiting for the network teardown. Stopping an idle composer is a no-op;
// repeated stops are harmless.
func (c *Composer) Stop() {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.state = StateIdle
	c.active = nil
	c.cancel = nil
	c.mu.Unlock()

	cancel()
}

// Wait blocks until the most recently opened session has fully settled.
// Rendering collaborators poll State instead; this is for callers that
// need the final store contents, like the CLI and tests.
func (c *Composer) Wait() {
	c.mu.Lock()
	done := c.runDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
