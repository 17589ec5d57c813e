package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/storyteller/pkg/chat"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running storyteller API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner. Story requests run several model
// calls back to back, so the client timeout is generous.
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 5 * time.Minute},
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(content, &suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
		}
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	lastSessionID := ""
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.executeStep(ctx, step, lastSessionID)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
		switch {
		case stepResult.IsReset:
			lastSessionID = ""
		case stepResult.SessionID != "":
			lastSessionID = stepResult.SessionID
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// executeStep performs one request and checks its expectations
func (r *Runner) executeStep(ctx context.Context, step TestStep, lastSessionID string) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	if step.UserPrompt == ClearSessionsPrompt {
		if err := ClearSessions(ctx, r.Client, r.BaseURL); err != nil {
			result.Error = err
		} else {
			result.Success = true
			result.IsReset = true
			result.ResponseText = "[SESSIONS CLEARED]"
		}
		result.Duration = time.Since(start)
		return result
	}

	request := chat.StoryRequest{Message: step.UserPrompt}
	if step.ContinuePrevious {
		if lastSessionID == "" {
			result.Error = fmt.Errorf("continue_previous set but no earlier step produced a session")
			result.Duration = time.Since(start)
			return result
		}
		request.SessionID = lastSessionID
	}

	reply, err := PostStory(ctx, r.Client, r.BaseURL, request)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	if reply.Story != nil {
		result.ResponseText = reply.Story.Story
		result.SessionID = reply.Story.SessionID
		result.Attempts = reply.Story.Attempts
	} else {
		result.ResponseText = reply.Failure.Error
		result.Attempts = reply.Failure.Attempts
	}

	if err := checkExpectations(step.Expectations, reply, lastSessionID); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates a reply against the step's expectations
func checkExpectations(exp Expectations, reply *StoryReply, lastSessionID string) error {
	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if reply.Status != wantStatus {
		detail := ""
		if reply.Failure != nil {
			detail = ": " + reply.Failure.Error
		}
		return fmt.Errorf("expected status %d, got %d%s", wantStatus, reply.Status, detail)
	}

	if reply.Failure != nil {
		if exp.FailureReason != nil && reply.Failure.FailureReason != *exp.FailureReason {
			return fmt.Errorf("expected failure reason %s, got %s", *exp.FailureReason, reply.Failure.FailureReason)
		}
		if exp.MaxAttempts != nil && reply.Failure.Attempts > *exp.MaxAttempts {
			return fmt.Errorf("expected at most %d attempts, got %d", *exp.MaxAttempts, reply.Failure.Attempts)
		}
		return checkResponseText(exp, reply.Failure.Error)
	}

	s := reply.Story
	if exp.Continued != nil && s.Continued != *exp.Continued {
		return fmt.Errorf("expected continued=%v, got %v", *exp.Continued, s.Continued)
	}
	if exp.SameSession && s.SessionID != lastSessionID {
		return fmt.Errorf("expected session %s, got %s", lastSessionID, s.SessionID)
	}
	if exp.ArcID != nil && s.ArcID != *exp.ArcID {
		return fmt.Errorf("expected arc %s, got %s", *exp.ArcID, s.ArcID)
	}
	if len(exp.ArcStageIn) > 0 && !slices.Contains(exp.ArcStageIn, s.ArcStage) {
		return fmt.Errorf("expected arc stage in %v, got %q", exp.ArcStageIn, s.ArcStage)
	}
	for _, name := range exp.Characters {
		if _, ok := s.Characters[name]; !ok {
			return fmt.Errorf("expected character '%s' in %v", name, s.Characters)
		}
	}
	if exp.MaxAttempts != nil && s.Attempts > *exp.MaxAttempts {
		return fmt.Errorf("expected at most %d attempts, got %d", *exp.MaxAttempts, s.Attempts)
	}
	return checkResponseText(exp, s.Story)
}

func checkResponseText(exp Expectations, text string) error {
	lowered := strings.ToLower(text)
	for _, want := range exp.ResponseContains {
		if !strings.Contains(lowered, strings.ToLower(want)) {
			return fmt.Errorf("expected response to contain '%s'", want)
		}
	}
	for _, unwanted := range exp.ResponseNotContains {
		if strings.Contains(lowered, strings.ToLower(unwanted)) {
			return fmt.Errorf("expected response to not contain '%s'", unwanted)
		}
	}
	if exp.ResponseRegex != "" {
		re, err := regexp.Compile(exp.ResponseRegex)
		if err != nil {
			return fmt.Errorf("invalid response_regex: %w", err)
		}
		if !re.MatchString(text) {
			return fmt.Errorf("response does not match regex '%s'", exp.ResponseRegex)
		}
	}
	if exp.ResponseMinLength != nil && len(text) < *exp.ResponseMinLength {
		return fmt.Errorf("response length %d is below minimum %d", len(text), *exp.ResponseMinLength)
	}
	if exp.ResponseMaxLength != nil && len(text) > *exp.ResponseMaxLength {
		return fmt.Errorf("response length %d exceeds maximum %d", len(text), *exp.ResponseMaxLength)
	}
	return nil
}
