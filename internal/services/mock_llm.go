package services

import (
	"context"
	"fmt"
	"sync"
)

// MockLLMAPI is a mock TextCompleter for testing. Replies come from
// CompleteFunc when set, otherwise from the queued responses in order.
type MockLLMAPI struct {
	CompleteFunc func(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)

	// Track calls for testing
	CompleteCalls []CompleteCall

	responses []string
	mu        sync.Mutex // protects all fields above
}

type CompleteCall struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI(responses ...string) *MockLLMAPI {
	return &MockLLMAPI{
		CompleteCalls: make([]CompleteCall, 0),
		responses:     responses,
	}
}

// Complete records the call and returns the next scripted reply.
func (m *MockLLMAPI) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls = append(m.CompleteCalls, CompleteCall{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, maxTokens, temperature)
	}

	if len(m.responses) == 0 {
		return "", fmt.Errorf("mock LLM has no response queued for call %d", len(m.CompleteCalls))
	}
	reply := m.responses[0]
	m.responses = m.responses[1:]
	return reply, nil
}

// QueueResponses appends replies to the script.
func (m *MockLLMAPI) QueueResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// SetCompleteError sets up the mock to fail every call with err.
func (m *MockLLMAPI) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
		return "", err
	}
}

// Reset clears call tracking and queued replies.
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompleteCall, 0)
	m.responses = nil
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]CompleteCall, len(m.CompleteCalls))
	copy(calls, m.CompleteCalls)
	return calls
}
