package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/repository"
	"github.com/insieme-app/insieme-api/pkg/ai"
)

// CorrectThreshold is the partial score at or above which an answer counts
// as correct.
const CorrectThreshold = 0.7

// Fallback scores used when the AI backend produced no usable grading.
const (
	fallbackScoreMatch    = 0.7
	fallbackScoreNoMatch  = 0.1
	fallbackConfidence    = 0.3
	missingAnswerFeedback = "no answer submitted"
	fallbackFeedback      = "Automatic grading was unavailable for this answer. Please request a manual review."
)

// AnswerGrader is the slice of the AI backend used for per-question grading.
type AnswerGrader interface {
	GradeAnswer(ctx context.Context, input ai.GradingInput) (ai.GradeResult, error)
}

// GradeAnswersInput is a text-mode grading request over a full worksheet.
type GradeAnswersInput struct {
	WorksheetID string           `validate:"omitempty"`
	UserID      string           `validate:"required"`
	Problems    []models.Problem `validate:"required,min=1"`
	Answers     []models.Answer
}

// GradeAnswersResult is the stored submission plus its id.
type GradeAnswersResult struct {
	SubmissionID string
	Submission   models.Submission
}

// GradingService turns heterogeneous answers into one consistent scored
// submission: strategy selection, per-question grading with deterministic
// fallback, aggregation, and idempotent persistence.
type GradingService interface {
	GradeAnswers(ctx context.Context, input GradeAnswersInput) (GradeAnswersResult, error)
}

type gradingService struct {
	grader      AnswerGrader
	submissions repository.SubmissionRepository
	lifecycle   WorksheetLifecycle
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(grader AnswerGrader, submissions repository.SubmissionRepository, lifecycle WorksheetLifecycle, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		grader:      grader,
		submissions: submissions,
		lifecycle:   lifecycle,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

func (s *gradingService) GradeAnswers(ctx context.Context, input GradeAnswersInput) (GradeAnswersResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return GradeAnswersResult{}, err
	}

	answersByProblem := make(map[string]string, len(input.Answers))
	for _, answer := range input.Answers {
		answersByProblem[answer.ProblemID] = answer.Answer
	}

	// Questions are graded sequentially in worksheet order; each result is
	// independent of the others, so the loop could be swapped for an
	// order-preserving worker pool without touching the aggregation below.
	graded := make([]models.GradedAnswer, 0, len(input.Problems))
	llmUsed := false
	for _, problem := range input.Problems {
		answer, ok := answersByProblem[problem.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			graded = append(graded, missingAnswerResult(problem.ID))
			continue
		}

		switch SelectStrategy(problem) {
		case StrategyExactMatch:
			graded = append(graded, gradeExactMatch(problem, answer))
		default:
			llmUsed = true
			graded = append(graded, s.gradeOpenEnded(ctx, problem, answer))
		}
	}

	method := models.GradingMethodBasic
	if llmUsed {
		method = models.GradingMethodLLMAssisted
	}

	submission := buildSubmission(input.WorksheetID, input.UserID, len(input.Problems), graded, method, s.now().UTC())

	result, err := s.persist(ctx, submission)
	if err != nil {
		return GradeAnswersResult{}, err
	}

	s.logger.Info().
		Str("submission_id", result.SubmissionID).
		Str("worksheet_id", input.WorksheetID).
		Int("score", result.Submission.Score).
		Int("total", result.Submission.TotalProblems).
		Msg("worksheet graded")

	return result, nil
}

// persist writes the submission document first and only then flips the
// worksheet status. If the submission write fails the worksheet must remain
// ready so the user can retry; the ordering is a correctness invariant.
func (s *gradingService) persist(ctx context.Context, submission models.Submission) (GradeAnswersResult, error) {
	if submission.WorksheetID == "" {
		id, err := s.submissions.Add(ctx, submission)
		if err != nil {
			return GradeAnswersResult{}, fmt.Errorf("store submission: %w", err)
		}
		submission.ID = id
		return GradeAnswersResult{SubmissionID: id, Submission: submission}, nil
	}

	if err := s.submissions.Put(ctx, submission); err != nil {
		return GradeAnswersResult{}, fmt.Errorf("store submission: %w", err)
	}

	if err := s.lifecycle.MarkSubmitted(ctx, submission.WorksheetID); err != nil {
		// The submission itself is durable; a failed status flip is not
		// reported to the user.
		s.logger.Warn().Err(err).
			Str("worksheet_id", submission.WorksheetID).
			Msg("failed to mark worksheet submitted")
	}

	return GradeAnswersResult{SubmissionID: submission.ID, Submission: submission}, nil
}

func (s *gradingService) gradeOpenEnded(ctx context.Context, problem models.Problem, answer string) models.GradedAnswer {
	result, err := s.grader.GradeAnswer(ctx, ai.GradingInput{
		Question:    problem.Question,
		ModelAnswer: problem.CorrectAnswer,
		Explanation: problem.Explanation,
		UserAnswer:  answer,
	})
	if err != nil {
		if !errors.Is(err, ai.ErrUnparsable) {
			s.logger.Warn().Err(err).Str("problem_id", problem.ID).Msg("ai grading unavailable, using fallback")
		}
		return fallbackGrade(problem, answer)
	}

	return models.GradedAnswer{
		ProblemID:    problem.ID,
		Answer:       answer,
		IsCorrect:    result.Score >= CorrectThreshold,
		PartialScore: result.Score,
		MaxScore:     1,
		Feedback:     result.Feedback,
		Reasoning:    result.Reasoning,
		Confidence:   result.Confidence,
	}
}

// gradeExactMatch compares the trimmed answer against the stored correct
// answer verbatim. No case folding: " b " does not match "B".
func gradeExactMatch(problem models.Problem, answer string) models.GradedAnswer {
	isCorrect := strings.TrimSpace(answer) == strings.TrimSpace(problem.CorrectAnswer)

	score := 0.0
	feedback := fmt.Sprintf("Incorrect. The correct answer is %s.", problem.CorrectAnswer)
	if isCorrect {
		score = 1.0
		feedback = "Correct!"
	}

	return models.GradedAnswer{
		ProblemID:    problem.ID,
		Answer:       answer,
		IsCorrect:    isCorrect,
		PartialScore: score,
		MaxScore:     1,
		Feedback:     feedback,
		Confidence:   1.0,
	}
}

// fallbackGrade is the deterministic last line of defense when the backend
// returned nothing usable. It never fails: a containment check against the
// model answer yields either generous partial credit or a token score.
func fallbackGrade(problem models.Problem, answer string) models.GradedAnswer {
	score := fallbackScoreNoMatch
	if strings.Contains(strings.ToLower(answer), strings.ToLower(strings.TrimSpace(problem.CorrectAnswer))) {
		score = fallbackScoreMatch
	}

	return models.GradedAnswer{
		ProblemID:    problem.ID,
		Answer:       answer,
		IsCorrect:    score >= CorrectThreshold,
		PartialScore: score,
		MaxScore:     1,
		Feedback:     fallbackFeedback,
		Confidence:   fallbackConfidence,
	}
}

func missingAnswerResult(problemID string) models.GradedAnswer {
	return models.GradedAnswer{
		ProblemID:    problemID,
		IsCorrect:    false,
		PartialScore: 0,
		MaxScore:     1,
		Feedback:     missingAnswerFeedback,
		Confidence:   1.0,
	}
}

// buildSubmission aggregates per-question results into one submission.
// totalProblems counts the worksheet's problems, not the graded answers, so
// unanswered questions still weigh on the percentage.
func buildSubmission(worksheetID, userID string, totalProblems int, graded []models.GradedAnswer, method string, submittedAt time.Time) models.Submission {
	var partial float64
	var correct int
	var confidenceSum float64
	for _, answer := range graded {
		partial += answer.PartialScore
		confidenceSum += answer.Confidence
		if answer.IsCorrect {
			correct++
		}
	}

	averageConfidence := 0.0
	if len(graded) > 0 {
		averageConfidence = confidenceSum / float64(len(graded))
	}

	percentage := 0
	if totalProblems > 0 {
		percentage = int(math.Round(100 * partial / float64(totalProblems)))
	}

	submission := models.Submission{
		WorksheetID:     worksheetID,
		UserID:          userID,
		Answers:         graded,
		SubmittedAt:     submittedAt,
		Score:           int(math.Round(partial)),
		TotalProblems:   totalProblems,
		PartialScore:    partial,
		PercentageScore: percentage,
		GradingMethod:   method,
		GradingVersion:  models.GradingVersion,
		Summary: models.GradingSummary{
			Correct:           correct,
			Total:             len(graded),
			AverageConfidence: averageConfidence,
		},
	}

	if worksheetID != "" {
		submission.ID = models.SubmissionID(worksheetID, userID)
	}

	return submission
}
