package services

import (
	"context"
	"fmt"
	"testing"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI("first", "second")

	got, err := mockService.Complete(context.Background(), "prompt one", 100, 0.3)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "first" {
		t.Errorf("Expected 'first', got '%s'", got)
	}

	got, _ = mockService.Complete(context.Background(), "prompt two", 200, 0.1)
	if got != "second" {
		t.Errorf("Expected 'second', got '%s'", got)
	}

	if _, err := mockService.Complete(context.Background(), "prompt three", 1, 0); err == nil {
		t.Error("Expected error once the script is exhausted")
	}

	calls := mockService.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("Expected 3 calls, got %d", len(calls))
	}
	if calls[1].Prompt != "prompt two" || calls[1].MaxTokens != 200 || calls[1].Temperature != 0.1 {
		t.Errorf("Unexpected call record %+v", calls[1])
	}

	mockService.Reset()
	if len(mockService.GetCalls()) != 0 {
		t.Error("Reset did not clear calls")
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	expectedErr := fmt.Errorf("model offline")
	mockService.SetCompleteError(expectedErr)

	_, err := mockService.Complete(context.Background(), "hello", 10, 0)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if err.Error() != expectedErr.Error() {
		t.Errorf("Expected error '%s', got '%s'", expectedErr.Error(), err.Error())
	}
}
