package ai

import (
	"context"
	"errors"
)

// ErrUnparsable indicates the backend returned content that could not be
// decoded as the requested JSON shape. Callers decide whether to fall back
// or to fail the request.
var ErrUnparsable = errors.New("ai response is not valid json")

// GenerationInput describes a worksheet generation request. Topic and
// SourceFileURL may be combined; at least one must be present.
type GenerationInput struct {
	Subject       string
	Topic         string
	Difficulty    string
	NumQuestions  int
	SourceFileURL string
}

// GeneratedProblem is one problem produced by the backend.
type GeneratedProblem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Type          string   `json:"type"`
}

// GradingInput carries one open-ended answer to be scored.
type GradingInput struct {
	Question    string
	ModelAnswer string
	Explanation string
	UserAnswer  string
}

// GradeResult is the structured verdict for a single open-ended answer.
// Score and Confidence are clamped into [0,1] before being returned.
type GradeResult struct {
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// ExtractionProblem is the per-question context given to the combined
// handwriting extraction call.
type ExtractionProblem struct {
	Number        int
	ID            string
	Question      string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

// ExtractionInput describes one combined extraction-and-grading request over
// a scanned answer sheet.
type ExtractionInput struct {
	Problems []ExtractionProblem
	FileURL  string
}

// ExtractedAnswer is one recognized answer from the scanned sheet. The
// backend may identify the problem by number, by id, or both.
type ExtractedAnswer struct {
	ProblemNumber   int     `json:"problemNumber,omitempty"`
	ProblemID       string  `json:"problemId,omitempty"`
	ExtractedAnswer string  `json:"extractedAnswer"`
	Score           float64 `json:"score"`
	Feedback        string  `json:"feedback"`
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"`
}

// Backend is the generative service consumed by the worksheet pipelines.
type Backend interface {
	GenerateProblems(ctx context.Context, input GenerationInput) ([]GeneratedProblem, error)
	GradeAnswer(ctx context.Context, input GradingInput) (GradeResult, error)
	ExtractAnswers(ctx context.Context, input ExtractionInput) ([]ExtractedAnswer, error)
}
