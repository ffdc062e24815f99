package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/visionbi/strand/pkg/logger"
)

// ClientIDFloor is the first identity handed out for client-originated
// messages. Backend identities are small autoincrement integers, so ids at
// or above the floor cannot collide with them within one client lifetime.
// After a reload the store is rehydrated from the backend and the
// client-assigned ids are discarded anyway.
const ClientIDFloor int64 = 1 << 40

// Store is the single source of truth for projects, conversations, messages
// and users. All mutation goes through its methods; callers never hold a
// mutable copy of message content. Safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	projects      map[int64]Project
	conversations map[int64]Conversation
	messages      map[int64][]Message // keyed by conversation id, in insertion order
	users         map[int64]User
	nextID        int64
}

func NewStore() *Store {
	return &Store{
		projects:      make(map[int64]Project),
		conversations: make(map[int64]Conversation),
		messages:      make(map[int64][]Message),
		users:         make(map[int64]User),
		nextID:        ClientIDFloor,
	}
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// InsertUserMessage appends a user message to the conversation and returns
// its freshly allocated client id.
func (s *Store) InsertUserMessage(conversationID int64, text string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.messages[conversationID] = append(s.messages[conversationID], Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        text,
		CreatedAt:      time.Now(),
	})
	return id
}

// InsertOpenAssistantMessage appends an empty assistant message that is
// still receiving deltas and returns its id. The caller is responsible for
// closing it via Finalize; the composer guarantees at most one stream per
// conversation, so at most one message is open at a time.
func (s *Store) InsertOpenAssistantMessage(conversationID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.messages[conversationID] = append(s.messages[conversationID], Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Open:           true,
		CreatedAt:      time.Now(),
	})
	return id
}

// AppendDelta concatenates fragment onto the content of the message with the
// given id. A missing id is not an error: the conversation may have been
// deleted while its stream was still in flight, so the write is dropped and
// logged.
func (s *Store) AppendDelta(messageID int64, fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.locate(messageID)
	if msg == nil {
		logger.Warn("dropping delta for unknown message %d", messageID)
		return
	}
	msg.Content += fragment
}

// Finalize closes the message with the given id. A non-nil meta is attached
// as the response metadata; nil closes the message without metadata, which
// is the documented end state for a cancelled or failed stream (the partial
// content is retained). Content is never touched here, it already holds the
// accumulated text.
func (s *Store) Finalize(messageID int64, meta *ResponseMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.locate(messageID)
	if msg == nil {
		logger.Warn("finalize for unknown message %d", messageID)
		return
	}
	if meta != nil {
		msg.Meta = meta
	}
	msg.Open = false
}

// locate finds a message by id across all conversations. Caller holds s.mu.
func (s *Store) locate(messageID int64) *Message {
	for convID, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				return &s.messages[convID][i]
			}
		}
	}
	return nil
}

// Messages returns a copy of the conversation's messages in order.
func (s *Store) Messages(conversationID int64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[conversationID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Message returns the message with the given id, if it still exists.
func (s *Store) Message(messageID int64) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.locate(messageID); msg != nil {
		return *msg, true
	}
	return Message{}, false
}

// OpenMessageID returns the id of the conversation's open message, if any.
func (s *Store) OpenMessageID(conversationID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.messages[conversationID] {
		if msg.Open {
			return msg.ID, true
		}
	}
	return 0, false
}

// PutProject inserts or replaces a project record.
func (s *Store) PutProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

func (s *Store) Project(id int64) (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	return p, ok
}

// PutConversation inserts or replaces a conversation record.
func (s *Store) PutConversation(c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
}

func (s *Store) Conversation(id int64) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	return c, ok
}

// Conversations returns the project's conversations, most recently updated
// first, matching the backend's listing order.
func (s *Store) Conversations(projectID int64) []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Conversation
	for _, c := range s.conversations {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// RenameConversation updates the conversation title.
func (s *Store) RenameConversation(id int64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return
	}
	c.Title = title
	c.UpdatedAt = time.Now()
	s.conversations[id] = c
}

// DeleteConversation removes the conversation and cascades its messages.
// Any stream still appending into the deleted conversation degrades to the
// AppendDelta unknown-id no-op.
func (s *Store) DeleteConversation(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)
	delete(s.messages, id)
}

// LoadConversations replaces the project's conversation records with
// backend state. Messages are untouched; deltas still streaming into a
// conversation absent from the new listing degrade to unknown-id no-ops
// once the conversation is deleted.
func (s *Store) LoadConversations(projectID int64, convs []Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.conversations {
		if c.ProjectID == projectID {
			delete(s.conversations, id)
		}
	}
	for _, c := range convs {
		s.conversations[c.ID] = c
	}
}

// LoadMessages replaces the conversation's messages with backend state.
func (s *Store) LoadMessages(conversationID int64, msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := make([]Message, len(msgs))
	copy(loaded, msgs)
	s.messages[conversationID] = loaded
}

// PutUser inserts or replaces a user record.
func (s *Store) PutUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) User(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// UserRole returns the user's current role, or "" if unknown.
func (s *Store) UserRole(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Role
}

// SetUserRole updates the user's role in place.
func (s *Store) SetUserRole(id int64, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return
	}
	u.Role = role
	s.users[id] = u
}
