package llm

import "context"

// MockCall records one Stream invocation.
type MockCall struct {
	History []Turn
	Message string
}

// MockStreamClient replays a scripted chunk sequence; used in tests.
type MockStreamClient struct {
	Chunks    []string
	FinalErr  error // returned after the chunks instead of ErrStreamDone
	StreamErr error // returned from Stream itself
	Calls     []MockCall
}

func (m *MockStreamClient) Stream(_ context.Context, history []Turn, message string) (ChunkStream, error) {
	m.Calls = append(m.Calls, MockCall{History: history, Message: message})
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	chunks := make([]string, len(m.Chunks))
	copy(chunks, m.Chunks)
	return &mockStream{chunks: chunks, finalErr: m.FinalErr}, nil
}

type mockStream struct {
	chunks   []string
	finalErr error
}

func (s *mockStream) Next() (string, error) {
	if len(s.chunks) == 0 {
		if s.finalErr != nil {
			return "", s.finalErr
		}
		return "", ErrStreamDone
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}
