package story

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FailureReason is the judge's closed set of rejection codes.
type FailureReason string

const (
	ReasonAgeInappropriate FailureReason = "age_inappropriate"
	ReasonArcMisalignment  FailureReason = "arc_misalignment"
	ReasonUnclearPrompt    FailureReason = "unclear_prompt"
	ReasonLowCreativity    FailureReason = "low_creativity"
)

var failureReasons = map[FailureReason]struct{}{
	ReasonAgeInappropriate: {},
	ReasonArcMisalignment:  {},
	ReasonUnclearPrompt:    {},
	ReasonLowCreativity:    {},
}

// IsValid reports whether r is one of the allowed codes.
func (r FailureReason) IsValid() bool {
	_, ok := failureReasons[r]
	return ok
}

// String renders the empty reason as "unspecified" for display.
func (r FailureReason) String() string {
	if r == "" {
		return "unspecified"
	}
	return string(r)
}

// AllowedFailureReasons returns the codes sorted, which keeps the judge prompt stable.
func AllowedFailureReasons() []string {
	out := make([]string, 0, len(failureReasons))
	for r := range failureReasons {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// MinPassingScore is the lowest score a passing story may have in any category.
const MinPassingScore = 3

// Scores holds the judge's 1-5 ratings.
type Scores struct {
	AgeAppropriateness int `json:"age_appropriateness" validate:"min=1,max=5"`
	ArcAlignment       int `json:"arc_alignment" validate:"min=1,max=5"`
	Creativity         int `json:"creativity" validate:"min=1,max=5"`
}

// Min returns the lowest of the three scores.
func (s Scores) Min() int {
	return min(s.AgeAppropriateness, s.ArcAlignment, s.Creativity)
}

var scoreKeys = []string{"age_appropriateness", "arc_alignment", "creativity"}

// Judgment is the normalized verdict for one generated story.
// FailureReason is empty when the judge gave none.
type Judgment struct {
	Scores        Scores        `json:"scores"`
	Accept        bool          `json:"accept"`
	Feedback      string        `json:"feedback"`
	FailureReason FailureReason `json:"failure_reason,omitempty"`
}

type judgmentFields struct {
	Scores        Scores `json:"scores"`
	FailureReason string `json:"failure_reason" validate:"omitempty,failure_reason"`
}

// ParseJudgment validates the judge's raw reply. Every failure is a
// *JudgmentParseError wrapping a field-level error.
func ParseJudgment(raw string) (Judgment, error) {
	j, err := parseJudgment(raw)
	if err != nil {
		return Judgment{}, &JudgmentParseError{Err: err}
	}
	return j, nil
}

func parseJudgment(raw string) (Judgment, error) {
	top, err := decodeObject(extractJSON(raw), "")
	if err != nil {
		return Judgment{}, err
	}

	scoresObj, err := top.requireObject("scores")
	if err != nil {
		return Judgment{}, err
	}
	var fields judgmentFields
	values := make(map[string]int, len(scoreKeys))
	for _, key := range scoreKeys {
		n, err := scoresObj.requireInt(key)
		if err != nil {
			return Judgment{}, err
		}
		values[key] = n
	}
	extra := make([]string, 0)
	for _, key := range scoresObj.keys() {
		if _, ok := values[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return Judgment{}, &InvalidValueError{
			Field:  "scores",
			Reason: fmt.Sprintf("unexpected score %q", extra[0]),
		}
	}
	fields.Scores = Scores{
		AgeAppropriateness: values["age_appropriateness"],
		ArcAlignment:       values["arc_alignment"],
		Creativity:         values["creativity"],
	}

	pass, err := top.requireBool("overall_pass")
	if err != nil {
		return Judgment{}, err
	}

	if rawReason, ok := top.lookup("failure_reason"); ok {
		reason, err := top.asString("failure_reason", rawReason)
		if err != nil {
			return Judgment{}, err
		}
		fields.FailureReason = reason
	}

	if err := validate.Struct(fields); err != nil {
		return Judgment{}, fieldError(err, "")
	}

	var feedback string
	if rawFeedback, ok := top.lookup("feedback"); ok {
		feedback, err = top.asString("feedback", rawFeedback)
		if err != nil {
			return Judgment{}, err
		}
	}

	reason := FailureReason(fields.FailureReason)
	if pass {
		if feedback != "" {
			return Judgment{}, &InconsistentError{Reason: "feedback must be empty when overall_pass is true"}
		}
		if reason != "" {
			return Judgment{}, &InconsistentError{Reason: "failure_reason must be null when overall_pass is true"}
		}
	} else {
		if !top.has("feedback") {
			return Judgment{}, &MissingFieldError{Field: "feedback"}
		}
		if strings.TrimSpace(feedback) == "" {
			return Judgment{}, &InvalidValueError{Field: "feedback", Reason: "must be a non-empty string when overall_pass is false"}
		}
	}

	if pass && fields.Scores.Min() < MinPassingScore {
		return Judgment{}, &InconsistentError{
			Reason: fmt.Sprintf("overall_pass cannot be true when any score is below %d", MinPassingScore),
		}
	}

	j := Judgment{
		Scores:        fields.Scores,
		Accept:        pass,
		FailureReason: reason,
	}
	if !pass {
		j.Feedback = feedback
	}
	return j, nil
}

// MarshalJSON renders an empty failure reason as null.
func (j Judgment) MarshalJSON() ([]byte, error) {
	var reason *string
	if j.FailureReason != "" {
		s := string(j.FailureReason)
		reason = &s
	}
	return json.Marshal(struct {
		Scores        Scores  `json:"scores"`
		Accept        bool    `json:"accept"`
		Feedback      string  `json:"feedback"`
		FailureReason *string `json:"failure_reason"`
	}{j.Scores, j.Accept, j.Feedback, reason})
}
