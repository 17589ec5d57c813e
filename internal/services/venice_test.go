package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewVeniceService(t *testing.T) {
	apiKey := "test-api-key"
	modelName := "test-model"

	service := NewVeniceService(apiKey, modelName)

	if service.apiKey != apiKey {
		t.Errorf("Expected apiKey %s, got %s", apiKey, service.apiKey)
	}

	if service.modelName != modelName {
		t.Errorf("Expected modelName %s, got %s", modelName, service.modelName)
	}

	if service.httpClient == nil {
		t.Error("Expected httpClient to be initialized")
	}
}

func TestVeniceService_Complete(t *testing.T) {
	var got VeniceChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer server.Close()

	service := NewVeniceService("key", "test-model")
	service.baseURL = server.URL

	reply, err := service.Complete(context.Background(), "judge this", 800, 0)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "{}" {
		t.Errorf("Complete() = %q", reply)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("Expected json_object response format, got %+v", got.ResponseFormat)
	}
	if got.MaxTokens != 800 {
		t.Errorf("Expected max tokens 800, got %d", got.MaxTokens)
	}
	if got.VeniceParameters.EnableWebSearch != "off" {
		t.Errorf("Expected web search off")
	}
}

func TestVeniceService_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	service := NewVeniceService("key", "test-model")
	service.baseURL = server.URL

	if _, err := service.Complete(context.Background(), "p", 0, 0); err == nil {
		t.Error("Expected error, got nil")
	}
}
