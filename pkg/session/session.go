// Package session drives one streaming exchange with the backend: it
// inserts the user's turn and a provisional assistant message into the
// store, then reconciles decoded stream events into that message until the
// stream completes, fails, or is cancelled.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/chat"
	"github.com/visionbi/strand/pkg/logger"
	"github.com/visionbi/strand/pkg/sse"
)

// ErrStalled is the cancellation cause used when a stream delivers no bytes
// for the configured stall timeout. It is reported as a failure, unlike a
// user abort.
var ErrStalled = errors.New("stream stalled")

// ErrTruncated reports a stream that ended before its done event.
var ErrTruncated = errors.New("stream ended before completion")

// Backend is the streaming surface of the API client.
type Backend interface {
	StreamChat(ctx context.Context, req api.ChatStreamRequest) (io.ReadCloser, error)
}

// Controller opens stream sessions against one backend and one store.
type Controller struct {
	backend      Backend
	store        *chat.Store
	stallTimeout time.Duration

	// OnDelta, when set, observes each fragment after it has been applied
	// to the store. Used by rendering collaborators; never a write path.
	OnDelta func(fragment string)
}

func NewController(backend Backend, store *chat.Store) *Controller {
	return &Controller{backend: backend, store: store}
}

// SetStallTimeout enables cancellation of a stream that has delivered no
// bytes for d. Zero disables the timeout.
func (c *Controller) SetStallTimeout(d time.Duration) {
	c.stallTimeout = d
}

// Session is one in-flight streaming exchange. It holds only the target
// ids; message content lives in the store and is written exclusively
// through its mutators.
type Session struct {
	ID             string
	ConversationID int64
	MessageID      int64

	ctrl  *Controller
	req   api.ChatStreamRequest
	accum strings.Builder
}

// Open inserts the user message and an empty open assistant message
// synchronously, before any network activity, so callers see the turn
// immediately regardless of network latency. The returned session targets
// the assistant message for the rest of the exchange.
func (c *Controller) Open(req api.ChatStreamRequest) *Session {
	c.store.InsertUserMessage(req.ConversationID, req.UserText)
	msgID := c.store.InsertOpenAssistantMessage(req.ConversationID)

	return &Session{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		MessageID:      msgID,
		ctrl:           c,
		req:            req,
	}
}

// Run issues the streaming request and drains it, applying each delta to
// the assistant message in arrival order and finalizing it on done.
//
// A cancellation through ctx ends the session silently: the assistant
// message keeps whatever content was appended and is closed without
// metadata. Any other failure closes the message the same way and is
// returned; the partial response is a documented end state, never deleted.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var stall *time.Timer
	if s.ctrl.stallTimeout > 0 {
		stall = time.AfterFunc(s.ctrl.stallTimeout, func() {
			cancel(ErrStalled)
		})
		defer stall.Stop()
	}

	body, err := s.ctrl.backend.StreamChat(ctx, s.req)
	if err != nil {
		s.ctrl.store.Finalize(s.MessageID, nil)
		return s.settle(ctx, err)
	}
	defer body.Close()

	dec := sse.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if stall != nil {
				stall.Reset(s.ctrl.stallTimeout)
			}
			for _, ev := range dec.Feed(buf[:n]) {
				switch {
				case ev.Delta != nil:
					s.accum.WriteString(ev.Delta.Text)
					s.ctrl.store.AppendDelta(s.MessageID, ev.Delta.Text)
					if s.ctrl.OnDelta != nil {
						s.ctrl.OnDelta(ev.Delta.Text)
					}
				case ev.Done != nil:
					s.finish(ev.Done)
					return nil
				}
			}
		}
		if readErr != nil {
			s.ctrl.store.Finalize(s.MessageID, nil)
			if readErr == io.EOF {
				return s.settle(ctx, ErrTruncated)
			}
			return s.settle(ctx, fmt.Errorf("stream read failed: %w", readErr))
		}
	}
}

// finish applies the terminal event. The content already holds the
// accumulated text; only metadata is attached.
func (s *Session) finish(done *sse.Done) {
	meta := done.Meta
	s.ctrl.store.Finalize(s.MessageID, &meta)

	if msg, ok := s.ctrl.store.Message(s.MessageID); ok && msg.Content != s.accum.String() {
		logger.Warn("session %s: store content diverged from accumulated text", s.ID)
	}
	logger.Debug("session %s: done, backend message id %d", s.ID, done.MessageID)
}

// settle classifies a terminal error against the cancellation cause: a
// caller abort is expected and reported as nil, a stall keeps its sentinel,
// anything else passes through.
func (s *Session) settle(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrStalled):
		return fmt.Errorf("%w after %s without data", ErrStalled, s.ctrl.stallTimeout)
	case ctx.Err() != nil:
		logger.Debug("session %s: cancelled", s.ID)
		return nil
	default:
		return err
	}
}

// Text returns the text accumulated by this session so far.
func (s *Session) Text() string {
	return s.accum.String()
}
