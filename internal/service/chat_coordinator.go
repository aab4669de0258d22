package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/llm"
	"github.com/Aman3008akn/chitchat/internal/store"
)

var (
	// ErrStreamInProgress is returned when a send or regenerate is attempted
	// while a response is still streaming. The caller must Stop first.
	ErrStreamInProgress = errors.New("a response is already streaming")

	// ErrCannotRegenerate is returned when the target message is not an
	// assistant message directly preceded by a user message.
	ErrCannotRegenerate = errors.New("message cannot be regenerated")

	// ErrNoActiveConversation is returned by Regenerate when no conversation
	// is selected.
	ErrNoActiveConversation = errors.New("no active conversation")
)

const (
	ownerResponse = "👉 “I am a large language model, created by Aman Shukla and some engineers.”"

	sendFailurePrefix       = "❌ Failed to get response: "
	regenerateFailurePrefix = "❌ Failed to regenerate response: "

	attributedAuthor = "Aman Shukla"
)

// ownerKeywords short-circuit questions about who built the product, in
// English and transliterated Hindi. Matching is case-insensitive substring
// matching against the trimmed outbound text.
var ownerKeywords = []string{
	"who made you", "who created you", "who built you", "who developed you", "who owns you",
	"your founder", "your creator", "your developer", "your owner", "made by who", "created by who",
	"built by who", "kisne banaya", "kisne create kiya", "kisne develop kiya", "kisne banayi",
	"kisne design kiya", "tumhe kisne banaya", "tumhare malik kaun hai", "kisne banaya tumhe",
}

var brandPattern = regexp.MustCompile(`(?i)google`)

// TurnHandle identifies the messages created by a send or regenerate. Done is
// closed once streaming has finished (complete, stopped or failed).
type TurnHandle struct {
	ConversationID     string
	UserMessageID      string
	AssistantMessageID string
	Done               <-chan struct{}
}

// ChatCoordinator drives one request/response cycle against the upstream
// provider and reflects it incrementally into the conversation store. At most
// one stream is in flight at a time.
type ChatCoordinator struct {
	logger *zap.Logger
	store  *store.Store
	client llm.StreamClient

	mu                 sync.Mutex
	cancel             context.CancelFunc
	streamingMessageID string
}

func NewChatCoordinator(logger *zap.Logger, st *store.Store, client llm.StreamClient) *ChatCoordinator {
	return &ChatCoordinator{logger: logger, store: st, client: client}
}

// SendMessage appends the user message (and an assistant placeholder) to the
// active conversation and starts streaming the response in the background.
// extractedText is attachment text folded into the outbound request only; the
// stored user message keeps the literal typed content.
func (c *ChatCoordinator) SendMessage(ctx context.Context, content string, attachment *domain.Attachment, extractedText string) (*TurnHandle, error) {
	streamCtx, cancel, err := c.acquire()
	if err != nil {
		return nil, err
	}

	conversationID := c.store.ActiveID()
	if conversationID == "" {
		conversationID = c.store.CreateConversation(ctx, "")
	}

	outbound := content
	if extractedText != "" {
		outbound = content + "\n\n" + extractedText
	}

	userMsg := domain.Message{
		ID:         uuid.NewString(),
		Role:       domain.RoleUser,
		Content:    content,
		Attachment: attachment,
	}
	c.store.AddMessage(ctx, conversationID, userMsg)

	// Owner questions never reach the network.
	if isOwnerQuestion(outbound) {
		assistantMsg := domain.Message{
			ID:      uuid.NewString(),
			Role:    domain.RoleAssistant,
			Content: ownerResponse,
		}
		c.store.AddMessage(ctx, conversationID, assistantMsg)
		c.release(cancel)
		done := make(chan struct{})
		close(done)
		return &TurnHandle{
			ConversationID:     conversationID,
			UserMessageID:      userMsg.ID,
			AssistantMessageID: assistantMsg.ID,
			Done:               done,
		}, nil
	}

	assistantID := uuid.NewString()
	c.store.AddMessage(ctx, conversationID, domain.Message{
		ID:   assistantID,
		Role: domain.RoleAssistant,
	})

	conv, ok := c.store.Conversation(conversationID)
	if !ok {
		c.release(cancel)
		return nil, ErrNoActiveConversation
	}
	history := historyExcluding(conv.Messages, assistantID)

	done := c.startStream(streamCtx, cancel, conversationID, assistantID, history, outbound, sendFailurePrefix)
	return &TurnHandle{
		ConversationID:     conversationID,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistantID,
		Done:               done,
	}, nil
}

// Regenerate truncates the active conversation to everything strictly before
// the target assistant message and replays the preceding user message.
func (c *ChatCoordinator) Regenerate(ctx context.Context, messageID string) (*TurnHandle, error) {
	streamCtx, cancel, err := c.acquire()
	if err != nil {
		return nil, err
	}

	conv := c.store.GetActiveConversation()
	if conv == nil {
		c.release(cancel)
		return nil, ErrNoActiveConversation
	}

	idx := -1
	for i := range conv.Messages {
		if conv.Messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx <= 0 || conv.Messages[idx].Role != domain.RoleAssistant {
		c.release(cancel)
		return nil, ErrCannotRegenerate
	}
	userMsg := conv.Messages[idx-1]
	if userMsg.Role != domain.RoleUser {
		c.release(cancel)
		return nil, ErrCannotRegenerate
	}

	kept, ok := c.store.TruncateAt(ctx, conv.ID, messageID)
	if !ok {
		c.release(cancel)
		return nil, ErrCannotRegenerate
	}

	assistantID := uuid.NewString()
	c.store.AddMessage(ctx, conv.ID, domain.Message{
		ID:   assistantID,
		Role: domain.RoleAssistant,
	})

	done := c.startStream(streamCtx, cancel, conv.ID, assistantID, toHistory(kept), userMsg.Content, regenerateFailurePrefix)
	return &TurnHandle{
		ConversationID:     conv.ID,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistantID,
		Done:               done,
	}, nil
}

// Stop cancels the in-flight stream, if any. Already-applied partial content
// stays in place.
func (c *ChatCoordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StreamingMessageID reports the assistant message currently being streamed,
// or empty when idle.
func (c *ChatCoordinator) StreamingMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamingMessageID
}

// acquire reserves the single in-flight slot. It runs before any store
// mutation, so a send or regenerate that loses the race is rejected without
// leaving messages behind. The stream runs on its own context so it survives
// the HTTP request that started it; Stop is the only way to cancel it.
func (c *ChatCoordinator) acquire() (context.Context, context.CancelFunc, error) {
	streamCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		cancel()
		return nil, nil, ErrStreamInProgress
	}
	c.cancel = cancel
	c.mu.Unlock()
	return streamCtx, cancel, nil
}

// release frees the slot on paths that never start a stream: owner
// interception and validation failures.
func (c *ChatCoordinator) release(cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	c.cancel = nil
	c.streamingMessageID = ""
	c.mu.Unlock()
}

// startStream launches the consuming goroutine for an already-held slot.
func (c *ChatCoordinator) startStream(ctx context.Context, cancel context.CancelFunc, conversationID, assistantID string, history []llm.Turn, outbound, failurePrefix string) <-chan struct{} {
	c.mu.Lock()
	c.streamingMessageID = assistantID
	c.mu.Unlock()

	c.store.SetLoading(true)
	c.store.SetError("")

	done := make(chan struct{})
	go c.consume(ctx, cancel, conversationID, assistantID, history, outbound, failurePrefix, done)
	return done
}

func (c *ChatCoordinator) consume(ctx context.Context, cancel context.CancelFunc, conversationID, assistantID string, history []llm.Turn, outbound, failurePrefix string, done chan struct{}) {
	// Cleanup runs on every exit path: success, stop or failure.
	defer func() {
		cancel()
		c.store.SetLoading(false)
		c.mu.Lock()
		c.cancel = nil
		c.streamingMessageID = ""
		c.mu.Unlock()
		close(done)
	}()

	stream, err := c.client.Stream(ctx, history, outbound)
	if err != nil {
		c.fail(conversationID, assistantID, failurePrefix, err)
		return
	}

	var buf strings.Builder
	for {
		// Cancellation is cooperative and checked between chunks only.
		select {
		case <-ctx.Done():
			c.logger.Info("stream stopped",
				zap.String("conversation_id", conversationID),
				zap.String("message_id", assistantID))
			return
		default:
		}

		chunk, err := stream.Next()
		if errors.Is(err, llm.ErrStreamDone) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				// Stopped while waiting on the upstream; not an error.
				return
			}
			c.fail(conversationID, assistantID, failurePrefix, err)
			return
		}

		buf.WriteString(chunk)
		c.store.UpdateMessageContent(context.Background(), conversationID, assistantID, rebrand(buf.String()))
	}

	c.logger.Info("stream complete",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", assistantID),
		zap.Int("chars", buf.Len()))
}

func (c *ChatCoordinator) fail(conversationID, assistantID, failurePrefix string, err error) {
	c.logger.Error("stream failed",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", assistantID),
		zap.Error(err))
	c.store.SetError(err.Error())
	c.store.UpdateMessageContent(context.Background(), conversationID, assistantID, failurePrefix+err.Error())
}

func isOwnerQuestion(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range ownerKeywords {
		if strings.Contains(t, keyword) {
			return true
		}
	}
	return false
}

// rebrand replaces every occurrence of the upstream brand name in generated
// text with the product's attributed author.
func rebrand(text string) string {
	return brandPattern.ReplaceAllString(text, attributedAuthor)
}

func historyExcluding(messages []domain.Message, excludeID string) []llm.Turn {
	turns := make([]llm.Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == excludeID {
			continue
		}
		turns = append(turns, llm.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

func toHistory(messages []domain.Message) []llm.Turn {
	return historyExcluding(messages, "")
}
