package models

import (
	"fmt"
	"time"
)

// Grading method recorded on submissions.
const (
	GradingMethodBasic       = "basic"
	GradingMethodLLMAssisted = "llm-assisted"
)

// GradingVersion identifies the grading pipeline revision stored on submissions.
const GradingVersion = "2.0"

// Answer is a learner's raw response to one problem, pre-grading.
type Answer struct {
	ProblemID string `json:"problemId"`
	Answer    string `json:"answer"`
}

// GradedAnswer is the scored outcome for a single problem.
type GradedAnswer struct {
	ProblemID    string  `json:"problemId"`
	Answer       string  `json:"answer"`
	IsCorrect    bool    `json:"isCorrect"`
	PartialScore float64 `json:"partialScore"`
	MaxScore     float64 `json:"maxScore"`
	Feedback     string  `json:"feedback"`
	Reasoning    string  `json:"reasoning,omitempty"`
	Confidence   float64 `json:"confidence"`
}

// GradingSummary aggregates per-answer outcomes for display.
type GradingSummary struct {
	Correct           int     `json:"correct"`
	Total             int     `json:"total"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// Submission is one user's graded attempt at a worksheet, stored in the
// "worksheet_submissions" collection.
type Submission struct {
	ID              string         `json:"id"`
	WorksheetID     string         `json:"worksheetId"`
	UserID          string         `json:"userId"`
	Answers         []GradedAnswer `json:"answers"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	Score           int            `json:"score"`
	TotalProblems   int            `json:"totalProblems"`
	PartialScore    float64        `json:"partialScore"`
	PercentageScore int            `json:"percentageScore"`
	GradingMethod   string         `json:"gradingMethod"`
	GradingVersion  string         `json:"gradingVersion"`
	Summary         GradingSummary `json:"gradingSummary"`
}

// SubmissionID derives the deterministic document id for a worksheet
// submission so that resubmitting overwrites instead of duplicating.
func SubmissionID(worksheetID, userID string) string {
	return fmt.Sprintf("%s_%s", worksheetID, userID)
}
