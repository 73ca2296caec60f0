package service

import "github.com/insieme-app/insieme-api/internal/models"

// GradingStrategy selects how a single problem is scored.
type GradingStrategy int

const (
	// StrategyExactMatch grades by trimmed string equality against the
	// stored correct answer. Used for problems carrying a choice list.
	StrategyExactMatch GradingStrategy = iota
	// StrategyLLMOpenEnded delegates scoring to the AI backend.
	StrategyLLMOpenEnded
)

// SelectStrategy is a pure function: exact match iff the problem has options.
func SelectStrategy(problem models.Problem) GradingStrategy {
	if problem.IsMultipleChoice() {
		return StrategyExactMatch
	}
	return StrategyLLMOpenEnded
}
