package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/llm"
	"github.com/Aman3008akn/chitchat/internal/storage"
	"github.com/Aman3008akn/chitchat/internal/store"
)

func newTestCoordinator(client llm.StreamClient) (*ChatCoordinator, *store.Store) {
	st := store.New(zap.NewNop(), storage.NewMemoryKV())
	return NewChatCoordinator(zap.NewNop(), st, client), st
}

func waitDone(t *testing.T, handle *TurnHandle) {
	t.Helper()
	select {
	case <-handle.Done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stream did not finish in time")
	}
}

func messageByID(t *testing.T, st *store.Store, conversationID, messageID string) domain.Message {
	t.Helper()
	conv, ok := st.Conversation(conversationID)
	if !ok {
		t.Fatalf("conversation %q not found", conversationID)
	}
	for _, msg := range conv.Messages {
		if msg.ID == messageID {
			return msg
		}
	}
	t.Fatalf("message %q not found", messageID)
	return domain.Message{}
}

func TestSendMessage_StreamsAndRebrands(t *testing.T) {
	client := &llm.MockStreamClient{Chunks: []string{"I was built by ", "Google", " engineers."}}
	c, st := newTestCoordinator(client)

	handle, err := c.SendMessage(context.Background(), "who trained the model weights", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitDone(t, handle)

	got := messageByID(t, st, handle.ConversationID, handle.AssistantMessageID)
	want := "I was built by Aman Shukla engineers."
	if got.Content != want {
		t.Fatalf("expected %q, got %q", want, got.Content)
	}
	if got.Role != domain.RoleAssistant {
		t.Fatalf("expected assistant role, got %q", got.Role)
	}
	if st.Loading() {
		t.Fatalf("expected loading cleared")
	}
	if c.StreamingMessageID() != "" {
		t.Fatalf("expected streaming marker cleared")
	}

	// History excludes the assistant placeholder and maps roles verbatim.
	if len(client.Calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(client.Calls))
	}
	call := client.Calls[0]
	if call.Message != "who trained the model weights" {
		t.Fatalf("unexpected outbound message %q", call.Message)
	}
	if len(call.History) != 1 || call.History[0].Role != domain.RoleUser {
		t.Fatalf("expected history of 1 user turn, got %+v", call.History)
	}
}

func TestSendMessage_AttachmentTextOutboundOnly(t *testing.T) {
	client := &llm.MockStreamClient{Chunks: []string{"ok"}}
	c, st := newTestCoordinator(client)

	attachment := &domain.Attachment{Name: "notes.pdf", Type: "application/pdf", URL: "data:..."}
	handle, err := c.SendMessage(context.Background(), "summarize this", attachment, "[PDF Content: quarterly numbers]")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitDone(t, handle)

	userMsg := messageByID(t, st, handle.ConversationID, handle.UserMessageID)
	if userMsg.Content != "summarize this" {
		t.Fatalf("stored user message must keep the literal typed content, got %q", userMsg.Content)
	}
	if userMsg.Attachment == nil || userMsg.Attachment.Name != "notes.pdf" {
		t.Fatalf("expected attachment descriptor on user message")
	}
	if client.Calls[0].Message != "summarize this\n\n[PDF Content: quarterly numbers]" {
		t.Fatalf("expected extracted text folded into outbound request, got %q", client.Calls[0].Message)
	}
}

func TestSendMessage_OwnerInterception(t *testing.T) {
	phrases := []string{
		"who made you",
		"WHO CREATED YOU?",
		"tumhe kisne banaya",
		"  so tell me, who owns you  ",
	}
	for _, phrase := range phrases {
		client := &llm.MockStreamClient{Chunks: []string{"never"}}
		c, st := newTestCoordinator(client)

		handle, err := c.SendMessage(context.Background(), phrase, nil, "")
		if err != nil {
			t.Fatalf("send %q: %v", phrase, err)
		}
		waitDone(t, handle)

		if len(client.Calls) != 0 {
			t.Fatalf("phrase %q must not reach the network", phrase)
		}
		got := messageByID(t, st, handle.ConversationID, handle.AssistantMessageID)
		if got.Content != ownerResponse {
			t.Fatalf("phrase %q: expected canned response, got %q", phrase, got.Content)
		}
		conv, _ := st.Conversation(handle.ConversationID)
		if len(conv.Messages) != 2 {
			t.Fatalf("phrase %q: expected user + canned assistant, got %d messages", phrase, len(conv.Messages))
		}
	}
}

func TestSendMessage_CreatesConversationWhenNoneActive(t *testing.T) {
	client := &llm.MockStreamClient{Chunks: []string{"hi"}}
	c, st := newTestCoordinator(client)

	if st.ActiveID() != "" {
		t.Fatalf("precondition: no active conversation")
	}
	handle, err := c.SendMessage(context.Background(), "hello", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitDone(t, handle)

	if st.ActiveID() != handle.ConversationID {
		t.Fatalf("expected new conversation active")
	}
	conv, _ := st.Conversation(handle.ConversationID)
	if conv.Title != "hello" {
		t.Fatalf("expected title from first user message, got %q", conv.Title)
	}
}

func TestSendMessage_ErrorOverwritesAssistantMessage(t *testing.T) {
	client := &llm.MockStreamClient{
		Chunks:   []string{"partial "},
		FinalErr: errors.New("upstream exploded"),
	}
	c, st := newTestCoordinator(client)

	handle, err := c.SendMessage(context.Background(), "hello", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitDone(t, handle)

	got := messageByID(t, st, handle.ConversationID, handle.AssistantMessageID)
	want := sendFailurePrefix + "upstream exploded"
	if got.Content != want {
		t.Fatalf("expected %q, got %q", want, got.Content)
	}
	if st.LastError() != "upstream exploded" {
		t.Fatalf("expected store error set, got %q", st.LastError())
	}
	if st.Loading() {
		t.Fatalf("expected loading cleared on error")
	}
}

// gatedClient yields chunks only when fed, and honours context cancellation
// the way the real upstream iterator does.
type gatedClient struct {
	feed chan string
}

func (g *gatedClient) Stream(ctx context.Context, _ []llm.Turn, _ string) (llm.ChunkStream, error) {
	return &gatedStream{ctx: ctx, feed: g.feed}, nil
}

type gatedStream struct {
	ctx  context.Context
	feed chan string
}

func (s *gatedStream) Next() (string, error) {
	select {
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	case chunk, ok := <-s.feed:
		if !ok {
			return "", llm.ErrStreamDone
		}
		return chunk, nil
	}
}

func waitForContent(t *testing.T, st *store.Store, conversationID, messageID, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if messageByID(t, st, conversationID, messageID).Content == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("message never reached content %q", want)
}

func TestStop_LeavesAppliedChunksAndClearsLoading(t *testing.T) {
	client := &gatedClient{feed: make(chan string)}
	c, st := newTestCoordinator(client)

	handle, err := c.SendMessage(context.Background(), "hello", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	client.feed <- "chunk-one "
	waitForContent(t, st, handle.ConversationID, handle.AssistantMessageID, "chunk-one ")
	client.feed <- "chunk-two"
	waitForContent(t, st, handle.ConversationID, handle.AssistantMessageID, "chunk-one chunk-two")

	c.Stop()
	waitDone(t, handle)

	got := messageByID(t, st, handle.ConversationID, handle.AssistantMessageID)
	if got.Content != "chunk-one chunk-two" {
		t.Fatalf("expected the applied prefix to survive, got %q", got.Content)
	}
	if st.Loading() {
		t.Fatalf("expected loading cleared after stop")
	}
	if st.LastError() != "" {
		t.Fatalf("stop must not record an error, got %q", st.LastError())
	}
}

func TestSendMessage_RejectsWhileStreaming(t *testing.T) {
	client := &gatedClient{feed: make(chan string)}
	c, _ := newTestCoordinator(client)

	handle, err := c.SendMessage(context.Background(), "first", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := c.SendMessage(context.Background(), "second", nil, ""); !errors.Is(err, ErrStreamInProgress) {
		t.Fatalf("expected ErrStreamInProgress, got %v", err)
	}
	if _, err := c.Regenerate(context.Background(), "any"); !errors.Is(err, ErrStreamInProgress) {
		t.Fatalf("expected ErrStreamInProgress from regenerate, got %v", err)
	}

	c.Stop()
	waitDone(t, handle)

	// After stopping, a new send is accepted again.
	client2 := &llm.MockStreamClient{Chunks: []string{"ok"}}
	c2, _ := newTestCoordinator(client2)
	handle2, err := c2.SendMessage(context.Background(), "again", nil, "")
	if err != nil {
		t.Fatalf("send after stop: %v", err)
	}
	waitDone(t, handle2)
}

func TestSendMessage_ConcurrentLoserLeavesNoMessages(t *testing.T) {
	for i := 0; i < 50; i++ {
		client := &gatedClient{feed: make(chan string)}
		c, st := newTestCoordinator(client)

		start := make(chan struct{})
		handles := make([]*TurnHandle, 2)
		sendErrs := make([]error, 2)
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				handles[j], sendErrs[j] = c.SendMessage(context.Background(), "racing", nil, "")
			}(j)
		}
		close(start)
		wg.Wait()

		var winner *TurnHandle
		accepted := 0
		for j := 0; j < 2; j++ {
			if sendErrs[j] == nil {
				winner = handles[j]
				accepted++
			} else if !errors.Is(sendErrs[j], ErrStreamInProgress) {
				t.Fatalf("unexpected error: %v", sendErrs[j])
			}
		}
		if accepted != 1 {
			t.Fatalf("expected exactly one accepted send, got %d", accepted)
		}

		// The rejected send must not have touched the conversation.
		conv, ok := st.Conversation(winner.ConversationID)
		if !ok {
			t.Fatalf("conversation missing")
		}
		if len(conv.Messages) != 2 {
			t.Fatalf("expected user + placeholder only, got %d messages", len(conv.Messages))
		}
		if len(st.Conversations()) != 1 {
			t.Fatalf("expected a single conversation, got %d", len(st.Conversations()))
		}

		c.Stop()
		waitDone(t, winner)
	}
}

func TestRegenerate_TruncatesAndReplays(t *testing.T) {
	client := &llm.MockStreamClient{Chunks: []string{"first answer"}}
	c, st := newTestCoordinator(client)

	handle, err := c.SendMessage(context.Background(), "explain goroutines", nil, "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitDone(t, handle)

	client.Chunks = []string{"second ", "answer"}
	regen, err := c.Regenerate(context.Background(), handle.AssistantMessageID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	waitDone(t, regen)

	conv, _ := st.Conversation(handle.ConversationID)
	if len(conv.Messages) != 2 {
		t.Fatalf("expected user + regenerated assistant, got %d messages", len(conv.Messages))
	}
	if conv.Messages[1].ID == handle.AssistantMessageID {
		t.Fatalf("expected a fresh assistant message")
	}
	if conv.Messages[1].Content != "second answer" {
		t.Fatalf("expected regenerated content, got %q", conv.Messages[1].Content)
	}

	// The replayed request carries the original user content and the
	// truncated history.
	last := client.Calls[len(client.Calls)-1]
	if last.Message != "explain goroutines" {
		t.Fatalf("expected original user content outbound, got %q", last.Message)
	}
	if len(last.History) != 1 || last.History[0].Role != domain.RoleUser {
		t.Fatalf("expected truncated history of 1 user turn, got %+v", last.History)
	}
}

func TestRegenerate_RequiresPrecedingUserMessage(t *testing.T) {
	client := &llm.MockStreamClient{Chunks: []string{"x"}}
	c, st := newTestCoordinator(client)
	ctx := context.Background()

	id := st.CreateConversation(ctx, "")
	st.AddMessage(ctx, id, domain.Message{ID: "a0", Role: domain.RoleAssistant, Content: "greeting"})
	st.AddMessage(ctx, id, domain.Message{ID: "a1", Role: domain.RoleAssistant, Content: "followup"})

	if _, err := c.Regenerate(ctx, "a0"); !errors.Is(err, ErrCannotRegenerate) {
		t.Fatalf("expected ErrCannotRegenerate for first message, got %v", err)
	}
	if _, err := c.Regenerate(ctx, "a1"); !errors.Is(err, ErrCannotRegenerate) {
		t.Fatalf("expected ErrCannotRegenerate without preceding user message, got %v", err)
	}
	if _, err := c.Regenerate(ctx, "missing"); !errors.Is(err, ErrCannotRegenerate) {
		t.Fatalf("expected ErrCannotRegenerate for unknown id, got %v", err)
	}
	if len(client.Calls) != 0 {
		t.Fatalf("no upstream call expected, got %d", len(client.Calls))
	}
}

func TestRegenerate_NoActiveConversation(t *testing.T) {
	c, _ := newTestCoordinator(&llm.MockStreamClient{})
	if _, err := c.Regenerate(context.Background(), "any"); !errors.Is(err, ErrNoActiveConversation) {
		t.Fatalf("expected ErrNoActiveConversation, got %v", err)
	}
}

func TestIsOwnerQuestion(t *testing.T) {
	cases := map[string]bool{
		"who made you":                  true,
		"Who Made You, really?":         true,
		"kisne design kiya tha":         true,
		"what is the capital of france": false,
		"tell me about google":          false,
	}
	for input, want := range cases {
		if got := isOwnerQuestion(input); got != want {
			t.Fatalf("isOwnerQuestion(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRebrand(t *testing.T) {
	cases := map[string]string{
		"Google made me":               "Aman Shukla made me",
		"google and GOOGLE and GoOgLe": "Aman Shukla and Aman Shukla and Aman Shukla",
		"nothing to replace":           "nothing to replace",
	}
	for input, want := range cases {
		if got := rebrand(input); got != want {
			t.Fatalf("rebrand(%q) = %q, want %q", input, got, want)
		}
	}
}
