package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Aman3008akn/chitchat/internal/domain"
)

// ErrStreamDone marks the normal end of a chunk stream.
var ErrStreamDone = errors.New("llm: stream done")

// Turn is one prior exchange sent as history to the upstream provider.
type Turn struct {
	Role    string
	Content string
}

// ChunkStream is a lazy, finite, non-restartable sequence of text chunks.
// Next returns ErrStreamDone after the last chunk.
type ChunkStream interface {
	Next() (string, error)
}

// StreamClient sends a message plus history upstream and yields the response
// incrementally.
type StreamClient interface {
	Stream(ctx context.Context, history []Turn, message string) (ChunkStream, error)
}

// GeminiClient implements StreamClient against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Stream(ctx context.Context, history []Turn, message string) (ChunkStream, error) {
	model := c.client.GenerativeModel(c.model)
	chat := model.StartChat()

	chat.History = make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		// Gemini's role vocabulary: assistant turns are "model".
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	iter := chat.SendMessageStream(ctx, genai.Text(message))
	return &geminiStream{iter: iter}, nil
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Next() (string, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", ErrStreamDone
		}
		if err != nil {
			return "", fmt.Errorf("gemini stream: %w", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
		// Empty candidates happen on safety-only chunks; skip them.
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out += string(txt)
		}
	}
	return out
}
