package services

import (
	"context"
	"errors"
	"testing"
)

func TestNewRateLimited_Disabled(t *testing.T) {
	mock := NewMockLLMAPI()
	if got := NewRateLimited(mock, 0); got != TextCompleter(mock) {
		t.Error("Expected the wrapped completer to be returned unchanged")
	}
}

func TestRateLimited_Complete(t *testing.T) {
	mock := NewMockLLMAPI("one")
	limited := NewRateLimited(mock, 600)

	got, err := limited.Complete(context.Background(), "p", 1, 0)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "one" {
		t.Errorf("Complete() = %q", got)
	}
}

func TestRateLimited_CancelledContext(t *testing.T) {
	mock := NewMockLLMAPI("one", "two")
	limited := NewRateLimited(mock, 1)

	// The first call takes the only token.
	if _, err := limited.Complete(context.Background(), "p", 1, 0); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := limited.Complete(ctx, "p", 1, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(mock.GetCalls()) != 1 {
		t.Errorf("Expected the second call to be blocked, got %d calls", len(mock.GetCalls()))
	}
}
