package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/storyteller/pkg/chat"
)

// StoryReply is the decoded result of POST /v1/stories. Exactly one of
// Story and Failure is set.
type StoryReply struct {
	Status  int
	Story   *chat.StoryResponse
	Failure *chat.ErrorResponse
}

// PostStory sends a story request to the api.
func PostStory(ctx context.Context, client *http.Client, baseURL string, request chat.StoryRequest) (*StoryReply, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal story request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/stories", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post story request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	reply := &StoryReply{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK {
		reply.Story = &chat.StoryResponse{}
		if err := json.Unmarshal(data, reply.Story); err != nil {
			return nil, fmt.Errorf("failed to decode story response: %w", err)
		}
		return reply, nil
	}

	reply.Failure = &chat.ErrorResponse{}
	if err := json.Unmarshal(data, reply.Failure); err != nil {
		return nil, fmt.Errorf("status %d with undecodable body: %s", resp.StatusCode, string(data))
	}
	return reply, nil
}

// ClearSessions deletes every stored session.
func ClearSessions(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/v1/sessions", nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clear sessions returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// CheckHealth reports an error unless GET /health returns 200.
func CheckHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}
