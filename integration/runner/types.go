package runner

import (
	"time"
)

// Special user prompt values that trigger non-story actions
const (
	ClearSessionsPrompt = "CLEAR_SESSIONS"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name" yaml:"name"`
	Steps []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty" yaml:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single story request and its expected outcome.
// Use user_prompt: "CLEAR_SESSIONS" to wipe the session store.
// continue_previous sends the session id returned by the last successful step.
type TestStep struct {
	Name             string       `json:"name,omitempty" yaml:"name,omitempty"`
	UserPrompt       string       `json:"user_prompt" yaml:"user_prompt"`
	ContinuePrevious bool         `json:"continue_previous,omitempty" yaml:"continue_previous,omitempty"`
	Expectations     Expectations `json:"expect" yaml:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Status        *int     `json:"status,omitempty" yaml:"status,omitempty"` // HTTP status, defaults to 200
	Continued     *bool    `json:"continued,omitempty" yaml:"continued,omitempty"`
	SameSession   bool     `json:"same_session,omitempty" yaml:"same_session,omitempty"` // Session id equals the previous step's
	ArcID         *string  `json:"arc_id,omitempty" yaml:"arc_id,omitempty"`
	ArcStageIn    []string `json:"arc_stage_in,omitempty" yaml:"arc_stage_in,omitempty"`
	Characters    []string `json:"characters,omitempty" yaml:"characters,omitempty"` // Names that must appear
	MaxAttempts   *int     `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	FailureReason *string  `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty" yaml:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty" yaml:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty" yaml:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty" yaml:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty" yaml:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	SessionID    string
	Attempts     int
	IsReset      bool // True for CLEAR_SESSIONS steps (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
}
