package chat

import (
	"testing"
)

func TestStoryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     StoryRequest
		wantErr bool
	}{
		{"message only", StoryRequest{Message: "a story about a dog"}, false},
		{"with session", StoryRequest{Message: "more Pip", SessionID: "6f1c1f7e-8f4e-4a54-9d0c-0b1a7b2c3d4e"}, false},
		{"empty message", StoryRequest{}, true},
		{"blank message", StoryRequest{Message: "   "}, true},
		{"bad session id", StoryRequest{Message: "more Pip", SessionID: "pip"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	msgs := UserMessage("hello")
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != ChatRoleUser || msgs[0].Content != "hello" {
		t.Errorf("Unexpected message %+v", msgs[0])
	}
}
