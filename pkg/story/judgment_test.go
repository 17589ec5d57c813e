package story

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJudgment_Accepted(t *testing.T) {
	raw := `{"scores":{"age_appropriateness":5,"arc_alignment":4,"creativity":4},"overall_pass":true,"feedback":null,"failure_reason":null}`

	j, err := ParseJudgment(raw)
	require.NoError(t, err)

	assert.True(t, j.Accept)
	assert.Equal(t, "", j.Feedback)
	assert.Equal(t, Scores{AgeAppropriateness: 5, ArcAlignment: 4, Creativity: 4}, j.Scores)
	assert.Equal(t, FailureReason(""), j.FailureReason)
}

func TestParseJudgment_Rejected(t *testing.T) {
	raw := `{"scores":{"age_appropriateness":2,"arc_alignment":4,"creativity":4},"overall_pass":false,"feedback":"Too scary for target age","failure_reason":"age_inappropriate"}`

	j, err := ParseJudgment(raw)
	require.NoError(t, err)

	assert.False(t, j.Accept)
	assert.Equal(t, "Too scary for target age", j.Feedback)
	assert.Equal(t, ReasonAgeInappropriate, j.FailureReason)
}

func TestParseJudgment_RejectedWithoutReason(t *testing.T) {
	raw := `{"scores":{"age_appropriateness":4,"arc_alignment":2,"creativity":4},"overall_pass":false,"feedback":"Stray from the arc."}`

	j, err := ParseJudgment(raw)
	require.NoError(t, err)
	assert.False(t, j.Accept)
	assert.Equal(t, "unspecified", j.FailureReason.String())
}

func TestParseJudgment_EmptyFeedbackOnPass(t *testing.T) {
	for _, fb := range []string{`""`, `null`} {
		raw := `{"scores":{"age_appropriateness":4,"arc_alignment":4,"creativity":4},"overall_pass":true,"feedback":` + fb + `}`
		j, err := ParseJudgment(raw)
		require.NoError(t, err, "feedback %s", fb)
		assert.Equal(t, "", j.Feedback)
	}
}

func TestParseJudgment_WhitespaceFeedbackOnPass(t *testing.T) {
	raw := `{"scores":{"age_appropriateness":4,"arc_alignment":4,"creativity":4},"overall_pass":true,"feedback":"   "}`
	_, err := ParseJudgment(raw)

	var parseErr *JudgmentParseError
	require.ErrorAs(t, err, &parseErr)
	var inconsistent *InconsistentError
	assert.ErrorAs(t, err, &inconsistent)
}

func TestParseJudgment_FencedJSON(t *testing.T) {
	raw := "```json\n{\"scores\":{\"age_appropriateness\":5,\"arc_alignment\":5,\"creativity\":5},\"overall_pass\":true}\n```"

	j, err := ParseJudgment(raw)
	require.NoError(t, err)
	assert.True(t, j.Accept)
}

func TestParseJudgment_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		target  any
		wantMsg string
	}{
		{
			name:   "not json",
			raw:    "the story is lovely",
			target: nil,
		},
		{
			name:   "array instead of object",
			raw:    `[1,2,3]`,
			target: new(*WrongTypeError),
		},
		{
			name:   "missing scores",
			raw:    `{"overall_pass":true}`,
			target: new(*MissingFieldError),
		},
		{
			name:   "scores wrong type",
			raw:    `{"scores":[5,5,5],"overall_pass":true}`,
			target: new(*WrongTypeError),
		},
		{
			name:    "missing score key",
			raw:     `{"scores":{"age_appropriateness":5,"arc_alignment":5},"overall_pass":true}`,
			target:  new(*MissingFieldError),
			wantMsg: `missing field "scores.creativity"`,
		},
		{
			name:   "extra score key",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5,"humor":5},"overall_pass":true}`,
			target: new(*InvalidValueError),
		},
		{
			name:   "float score",
			raw:    `{"scores":{"age_appropriateness":4.5,"arc_alignment":5,"creativity":5},"overall_pass":true}`,
			target: new(*WrongTypeError),
		},
		{
			name:   "string score",
			raw:    `{"scores":{"age_appropriateness":"4","arc_alignment":5,"creativity":5},"overall_pass":true}`,
			target: new(*WrongTypeError),
		},
		{
			name:    "score above range",
			raw:     `{"scores":{"age_appropriateness":6,"arc_alignment":5,"creativity":5},"overall_pass":true}`,
			target:  new(*InvalidValueError),
			wantMsg: `field "scores.age_appropriateness" is invalid: must be at most 5`,
		},
		{
			name:   "score below range",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":0,"creativity":5},"overall_pass":false,"feedback":"x"}`,
			target: new(*InvalidValueError),
		},
		{
			name:   "overall_pass missing",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5}}`,
			target: new(*MissingFieldError),
		},
		{
			name:   "overall_pass not bool",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5},"overall_pass":"yes"}`,
			target: new(*WrongTypeError),
		},
		{
			name:   "unknown failure reason",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":2,"creativity":5},"overall_pass":false,"feedback":"x","failure_reason":"too_long"}`,
			target: new(*InvalidValueError),
		},
		{
			name:   "failure reason wrong type",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":2,"creativity":5},"overall_pass":false,"feedback":"x","failure_reason":3}`,
			target: new(*WrongTypeError),
		},
		{
			name:   "failure reason on pass",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5},"overall_pass":true,"failure_reason":"low_creativity"}`,
			target: new(*InconsistentError),
		},
		{
			name:   "feedback on pass",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5},"overall_pass":true,"feedback":"more dragons"}`,
			target: new(*InconsistentError),
		},
		{
			name:   "empty feedback on fail",
			raw:    `{"scores":{"age_appropriateness":2,"arc_alignment":5,"creativity":5},"overall_pass":false,"feedback":"","failure_reason":"age_inappropriate"}`,
			target: new(*InvalidValueError),
		},
		{
			name:   "missing feedback on fail",
			raw:    `{"scores":{"age_appropriateness":2,"arc_alignment":5,"creativity":5},"overall_pass":false,"failure_reason":"age_inappropriate"}`,
			target: new(*MissingFieldError),
		},
		{
			name:   "feedback wrong type",
			raw:    `{"scores":{"age_appropriateness":2,"arc_alignment":5,"creativity":5},"overall_pass":false,"feedback":["a"]}`,
			target: new(*WrongTypeError),
		},
		{
			name:   "pass with low score",
			raw:    `{"scores":{"age_appropriateness":5,"arc_alignment":2,"creativity":5},"overall_pass":true,"feedback":null,"failure_reason":null}`,
			target: new(*InconsistentError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJudgment(tt.raw)
			require.Error(t, err)

			var parseErr *JudgmentParseError
			require.True(t, errors.As(err, &parseErr), "expected JudgmentParseError, got %T", err)

			switch target := tt.target.(type) {
			case **MissingFieldError:
				assert.True(t, errors.As(err, target), "expected MissingFieldError, got %v", err)
			case **WrongTypeError:
				assert.True(t, errors.As(err, target), "expected WrongTypeError, got %v", err)
			case **InvalidValueError:
				assert.True(t, errors.As(err, target), "expected InvalidValueError, got %v", err)
			case **InconsistentError:
				assert.True(t, errors.As(err, target), "expected InconsistentError, got %v", err)
			}

			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, parseErr.Err.Error())
			}
		})
	}
}

func TestAllowedFailureReasons_Sorted(t *testing.T) {
	want := []string{"age_inappropriate", "arc_misalignment", "low_creativity", "unclear_prompt"}
	assert.Equal(t, want, AllowedFailureReasons())
}

func TestJudgment_MarshalJSON(t *testing.T) {
	j := Judgment{Scores: Scores{5, 5, 5}, Accept: true}
	data, err := json.Marshal(j)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scores":{"age_appropriateness":5,"arc_alignment":5,"creativity":5},"accept":true,"feedback":"","failure_reason":null}`, string(data))
}
