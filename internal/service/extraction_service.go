package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/repository"
	"github.com/insieme-app/insieme-api/pkg/ai"
)

// ErrUploadFailed indicates the answer sheet could not be ingested. No
// partial credit is ever awarded from a failed upload.
var ErrUploadFailed = errors.New("answer sheet upload failed")

// ErrExtractionUnparsable indicates the combined extraction response was not
// valid JSON. There is no per-question fallback for the combined call, so the
// whole request fails and must be retried by the caller.
var ErrExtractionUnparsable = errors.New("extraction response could not be parsed")

const unreadAnswerFeedback = "Your answer could not be read from the scanned sheet."

// AnswerExtractor is the slice of the AI backend used for scanned grading.
type AnswerExtractor interface {
	ExtractAnswers(ctx context.Context, input ai.ExtractionInput) ([]ai.ExtractedAnswer, error)
}

// GradeScanInput is a PDF-mode grading request over a full worksheet.
type GradeScanInput struct {
	WorksheetID   string           `validate:"omitempty"`
	UserID        string           `validate:"required"`
	Problems      []models.Problem `validate:"required,min=1"`
	AnswerPDFData string           `validate:"required"`
}

// ExtractionDetails reports how much of the scan was legible.
type ExtractionDetails struct {
	RecognizedAnswers int `json:"recognizedAnswers"`
	TotalProblems     int `json:"totalProblems"`
}

// GradeScanResult is the stored submission plus extraction coverage.
type GradeScanResult struct {
	SubmissionID string
	Submission   models.Submission
	Details      ExtractionDetails
}

// ExtractionService grades a scanned handwritten answer sheet: one upload,
// one combined extraction-and-grading call, then the shared aggregation.
type ExtractionService interface {
	GradeFromScan(ctx context.Context, input GradeScanInput) (GradeScanResult, error)
}

type extractionService struct {
	extractor   AnswerExtractor
	uploader    FileUploader
	submissions repository.SubmissionRepository
	lifecycle   WorksheetLifecycle
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExtractionService constructs the scanned-answer grading pipeline.
func NewExtractionService(extractor AnswerExtractor, uploader FileUploader, submissions repository.SubmissionRepository, lifecycle WorksheetLifecycle, validate *validator.Validate, logger zerolog.Logger) ExtractionService {
	return &extractionService{
		extractor:   extractor,
		uploader:    uploader,
		submissions: submissions,
		lifecycle:   lifecycle,
		validator:   validate,
		logger:      logger.With().Str("component", "extraction_service").Logger(),
		now:         time.Now,
	}
}

func (s *extractionService) GradeFromScan(ctx context.Context, input GradeScanInput) (GradeScanResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return GradeScanResult{}, err
	}

	data, err := decodePDFDataURL(input.AnswerPDFData)
	if err != nil {
		return GradeScanResult{}, err
	}

	fileURL, err := s.uploader.UploadPDF(ctx, fmt.Sprintf("answers-%s", input.UserID), data)
	if err != nil {
		return GradeScanResult{}, fmt.Errorf("%w: %s", ErrUploadFailed, err)
	}

	extractionProblems := make([]ai.ExtractionProblem, 0, len(input.Problems))
	for i, problem := range input.Problems {
		extractionProblems = append(extractionProblems, ai.ExtractionProblem{
			Number:        i + 1,
			ID:            problem.ID,
			Question:      problem.Question,
			Options:       problem.Options,
			CorrectAnswer: problem.CorrectAnswer,
			Explanation:   problem.Explanation,
		})
	}

	extracted, err := s.extractor.ExtractAnswers(ctx, ai.ExtractionInput{
		Problems: extractionProblems,
		FileURL:  fileURL,
	})
	if err != nil {
		if errors.Is(err, ai.ErrUnparsable) {
			return GradeScanResult{}, fmt.Errorf("%w: %s", ErrExtractionUnparsable, err)
		}
		return GradeScanResult{}, err
	}

	graded, recognized := matchExtractedAnswers(input.Problems, extracted)

	submission := buildSubmission(input.WorksheetID, input.UserID, len(input.Problems), graded, models.GradingMethodLLMAssisted, s.now().UTC())

	persisted, err := s.persist(ctx, submission)
	if err != nil {
		return GradeScanResult{}, err
	}

	s.logger.Info().
		Str("submission_id", persisted.SubmissionID).
		Str("worksheet_id", input.WorksheetID).
		Int("recognized", recognized).
		Int("total", len(input.Problems)).
		Msg("scanned worksheet graded")

	return GradeScanResult{
		SubmissionID: persisted.SubmissionID,
		Submission:   persisted.Submission,
		Details: ExtractionDetails{
			RecognizedAnswers: recognized,
			TotalProblems:     len(input.Problems),
		},
	}, nil
}

func (s *extractionService) persist(ctx context.Context, submission models.Submission) (GradeAnswersResult, error) {
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
		s.logger.Warn().Err(err).
			Str("worksheet_id", submission.WorksheetID).
			Msg("failed to mark worksheet submitted")
	}

	return GradeAnswersResult{SubmissionID: submission.ID, Submission: submission}, nil
}

// matchExtractedAnswers associates each problem with the backend's entry for
// it, by id first and position number second. Problems the backend could not
// locate are back-filled with a zero-score result so no question is ever
// silently dropped from the submission.
func matchExtractedAnswers(problems []models.Problem, extracted []ai.ExtractedAnswer) ([]models.GradedAnswer, int) {
	byID := make(map[string]ai.ExtractedAnswer, len(extracted))
	byNumber := make(map[int]ai.ExtractedAnswer, len(extracted))
	for _, answer := range extracted {
		if answer.ProblemID != "" {
			byID[answer.ProblemID] = answer
		}
		if answer.ProblemNumber > 0 {
			byNumber[answer.ProblemNumber] = answer
		}
	}

	graded := make([]models.GradedAnswer, 0, len(problems))
	recognized := 0
	for i, problem := range problems {
		answer, ok := byID[problem.ID]
		if !ok {
			answer, ok = byNumber[i+1]
		}
		if !ok {
			graded = append(graded, models.GradedAnswer{
				ProblemID:    problem.ID,
				IsCorrect:    false,
				PartialScore: 0,
				MaxScore:     1,
				Feedback:     unreadAnswerFeedback,
				Confidence:   1.0,
			})
			continue
		}

		recognized++
		graded = append(graded, models.GradedAnswer{
			ProblemID:    problem.ID,
			Answer:       answer.ExtractedAnswer,
			IsCorrect:    answer.Score >= CorrectThreshold,
			PartialScore: answer.Score,
			MaxScore:     1,
			Feedback:     answer.Feedback,
			Reasoning:    answer.Reasoning,
			Confidence:   answer.Confidence,
		})
	}

	return graded, recognized
}
