package models

import "strings"

// Problem types as produced by the generation pipeline.
const (
	ProblemTypeMultipleChoice = "multiple-choice"
	ProblemTypeShortAnswer    = "short-answer"
	ProblemTypeEssay          = "essay"
)

// Problem is a single question with an optional choice list and a model answer.
type Problem struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Type          string   `json:"type"`
}

// IsMultipleChoice reports whether the problem is graded by exact match.
// The choice list is authoritative; the type string is informational.
func (p Problem) IsMultipleChoice() bool {
	return len(p.Options) > 0
}

// HasOption reports whether the stored correct answer appears among the
// options by trimmed string equality.
func (p Problem) HasOption(answer string) bool {
	needle := strings.TrimSpace(answer)
	for _, option := range p.Options {
		if strings.TrimSpace(option) == needle {
			return true
		}
	}
	return false
}
