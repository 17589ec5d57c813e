package story

import (
	"fmt"
)

// MissingFieldError reports a required field absent from model output.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// WrongTypeError reports a field whose JSON type differs from the schema.
type WrongTypeError struct {
	Field string
	Want  string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("field %q must be %s", e.Field, e.Want)
}

// InvalidValueError reports a field with the right type but a disallowed value.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("field %q is invalid: %s", e.Field, e.Reason)
}

// InconsistentError reports fields that are individually valid but contradict each other.
type InconsistentError struct {
	Reason string
}

func (e *InconsistentError) Error() string {
	return "inconsistent output: " + e.Reason
}

// ConfigurationError is returned when the arc catalog cannot satisfy a lookup.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// GenerationError wraps a storyteller response that failed validation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("invalid storyteller output: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// JudgmentParseError wraps a judge response that failed validation.
type JudgmentParseError struct {
	Err error
}

func (e *JudgmentParseError) Error() string {
	return fmt.Sprintf("invalid judge output: %v", e.Err)
}

func (e *JudgmentParseError) Unwrap() error { return e.Err }

// SummaryParseError wraps a summarizer response that failed validation.
type SummaryParseError struct {
	Err error
}

func (e *SummaryParseError) Error() string {
	return fmt.Sprintf("invalid summarizer output: %v", e.Err)
}

func (e *SummaryParseError) Unwrap() error { return e.Err }
