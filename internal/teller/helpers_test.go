package teller

import (
	"encoding/json"
	"fmt"
)

func storyJSON(text, stage string, characters map[string]string) string {
	if characters == nil {
		characters = map[string]string{"Pip": "a small brave puppy"}
	}
	b, _ := json.Marshal(map[string]any{
		"story_text": text,
		"metadata": map[string]any{
			"characters":    characters,
			"setting":       "a sunny meadow",
			"summary":       "Pip went looking for a ball.",
			"current_stage": stage,
		},
	})
	return string(b)
}

const passJSON = `{"scores": {"age_appropriateness": 5, "arc_alignment": 4, "creativity": 4}, "overall_pass": true, "failure_reason": null, "feedback": ""}`

func failJSON(reason, feedback string) string {
	return fmt.Sprintf(`{"scores": {"age_appropriateness": 2, "arc_alignment": 4, "creativity": 4}, "overall_pass": false, "failure_reason": %q, "feedback": %q}`, reason, feedback)
}

func summaryJSON(s string) string {
	return fmt.Sprintf(`{"summary": %q}`, s)
}
