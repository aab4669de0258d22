package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/storage"
)

const defaultTitle = "New Chat"

// titleLimit is the number of characters of the first user message used as
// the conversation title before truncation kicks in.
const titleLimit = 50

// Store owns every conversation and serializes all mutations behind one
// mutex. Every mutation writes the full snapshot back to durable storage, so
// the persisted document always matches the in-memory state.
type Store struct {
	logger *zap.Logger
	kv     storage.KV

	mu            sync.Mutex
	conversations []domain.Conversation
	activeID      string
	loading       bool
	lastError     string
}

// persistedState is the serialized form of the store, one document under
// storage.KeyChatStore.
type persistedState struct {
	Conversations []domain.Conversation `json:"conversations"`
	ActiveChatID  *string               `json:"activeChatId"`
}

func New(logger *zap.Logger, kv storage.KV) *Store {
	return &Store{logger: logger, kv: kv}
}

// Load restores the store from durable storage. A missing document yields an
// empty store; a malformed document or entry is skipped with a warning, never
// a failure.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, storage.KeyChatStore)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return nil
		}
		return err
	}

	var doc struct {
		Conversations []json.RawMessage `json:"conversations"`
		ActiveChatID  *string           `json:"activeChatId"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("chat store document malformed, starting empty", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = s.conversations[:0]
	for i, entry := range doc.Conversations {
		var conv domain.Conversation
		if err := json.Unmarshal(entry, &conv); err != nil {
			s.logger.Warn("skipping malformed conversation entry",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if conv.ID == "" {
			s.logger.Warn("skipping conversation entry without id", zap.Int("index", i))
			continue
		}
		s.conversations = append(s.conversations, conv)
	}

	if doc.ActiveChatID != nil && s.findLocked(*doc.ActiveChatID) >= 0 {
		s.activeID = *doc.ActiveChatID
	}
	return nil
}

// CreateConversation prepends a new empty conversation, makes it active and
// returns its id.
func (s *Store) CreateConversation(ctx context.Context, title string) string {
	if title == "" {
		title = defaultTitle
	}
	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append([]domain.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.persistLocked(ctx)
	return conv.ID
}

// AddMessage appends a message to the target conversation. The first user
// message also sets the conversation title. An unknown conversation id is a
// logged no-op.
func (s *Store) AddMessage(ctx context.Context, conversationID string, msg domain.Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLocked(conversationID)
	if idx < 0 {
		s.logger.Warn("add message: conversation not found", zap.String("conversation_id", conversationID))
		return
	}

	conv := &s.conversations[idx]
	if len(conv.Messages) == 0 && msg.Role == domain.RoleUser {
		conv.Title = deriveTitle(msg.Content)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now().UTC()
	s.persistLocked(ctx)
}

// UpdateMessageContent replaces the content of one message. Unknown
// conversation or message ids are logged no-ops.
func (s *Store) UpdateMessageContent(ctx context.Context, conversationID, messageID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLocked(conversationID)
	if idx < 0 {
		s.logger.Warn("update message: conversation not found", zap.String("conversation_id", conversationID))
		return
	}

	conv := &s.conversations[idx]
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			conv.Messages[i].Content = content
			conv.UpdatedAt = time.Now().UTC()
			s.persistLocked(ctx)
			return
		}
	}
	s.logger.Warn("update message: message not found",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID))
}

// TruncateAt removes the message with the given id and everything after it,
// returning copies of the kept messages. Used by regeneration. Reports false
// when the conversation or message is unknown.
func (s *Store) TruncateAt(ctx context.Context, conversationID, messageID string) ([]domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLocked(conversationID)
	if idx < 0 {
		s.logger.Warn("truncate: conversation not found", zap.String("conversation_id", conversationID))
		return nil, false
	}

	conv := &s.conversations[idx]
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			conv.Messages = conv.Messages[:i]
			conv.UpdatedAt = time.Now().UTC()
			s.persistLocked(ctx)
			return cloneMessages(conv.Messages), true
		}
	}
	return nil, false
}

// DeleteConversation removes the conversation and all its messages. When the
// active conversation is deleted, the next remaining one (in sequence order)
// becomes active, or none if the store is empty.
func (s *Store) DeleteConversation(ctx context.Context, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := make([]domain.Conversation, 0, len(s.conversations))
	found := false
	for _, conv := range s.conversations {
		if conv.ID == conversationID {
			found = true
			continue
		}
		remaining = append(remaining, conv)
	}
	if !found {
		s.logger.Warn("delete: conversation not found", zap.String("conversation_id", conversationID))
		return
	}
	s.conversations = remaining

	if s.activeID == conversationID {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		} else {
			s.activeID = ""
		}
	}
	s.persistLocked(ctx)
}

// SetActiveConversation selects a conversation; an empty id clears the
// selection. An unknown id is a logged no-op, so the active id always
// references a present conversation.
func (s *Store) SetActiveConversation(ctx context.Context, conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conversationID != "" && s.findLocked(conversationID) < 0 {
		s.logger.Warn("set active: conversation not found", zap.String("conversation_id", conversationID))
		return
	}
	s.activeID = conversationID
	s.persistLocked(ctx)
}

// GetActiveConversation returns a copy of the active conversation, or nil
// when none is selected.
func (s *Store) GetActiveConversation() *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return nil
	}
	idx := s.findLocked(s.activeID)
	if idx < 0 {
		return nil
	}
	conv := cloneConversation(s.conversations[idx])
	return &conv
}

// Conversation returns a copy of the conversation with the given id.
func (s *Store) Conversation(conversationID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(conversationID)
	if idx < 0 {
		return domain.Conversation{}, false
	}
	return cloneConversation(s.conversations[idx]), true
}

// Conversations returns copies of all conversations, newest-created first.
func (s *Store) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, cloneConversation(conv))
	}
	return out
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = message
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Store) findLocked(conversationID string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			return i
		}
	}
	return -1
}

// persistLocked writes the full snapshot to durable storage. A write failure
// leaves the in-memory state authoritative and is logged, not propagated.
func (s *Store) persistLocked(ctx context.Context) {
	state := persistedState{Conversations: s.conversations}
	if s.activeID != "" {
		state.ActiveChatID = &s.activeID
	}
	if state.Conversations == nil {
		state.Conversations = []domain.Conversation{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("marshal chat store failed", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, storage.KeyChatStore, raw); err != nil {
		s.logger.Warn("persist chat store failed", zap.Error(err))
	}
}

func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleLimit {
		return content
	}
	return string(runes[:titleLimit]) + "..."
}

func cloneMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out
}

func cloneConversation(conv domain.Conversation) domain.Conversation {
	conv.Messages = cloneMessages(conv.Messages)
	return conv
}
