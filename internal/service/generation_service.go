package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/pkg/ai"
)

// ErrGenerationFailed wraps any upstream failure while producing a worksheet.
// The placeholder is marked errored before this is returned.
var ErrGenerationFailed = errors.New("worksheet generation failed")

// ErrTopicOrPDFRequired indicates the request carried neither a topic nor a
// source document to generate from.
var ErrTopicOrPDFRequired = errors.New("either topic or pdf data is required")

// problemSetSchema constrains the backend's generation output before it is
// accepted as worksheet content.
const problemSetSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"properties": {
			"question": {"type": "string", "minLength": 1},
			"options": {"type": "array", "items": {"type": "string"}},
			"correctAnswer": {"type": "string", "minLength": 1},
			"explanation": {"type": "string"},
			"type": {"type": "string", "enum": ["multiple-choice", "short-answer", "essay"]}
		},
		"required": ["question", "correctAnswer", "type"]
	}
}`

var problemSetValidator = jsonschema.MustCompileString("problems.json", problemSetSchema)

// ProblemGenerator is the slice of the AI backend used for generation.
type ProblemGenerator interface {
	GenerateProblems(ctx context.Context, input ai.GenerationInput) ([]ai.GeneratedProblem, error)
}

// GenerateWorksheetInput describes one worksheet creation request. The client
// has already written a "creating" placeholder under TempWorksheetID.
type GenerateWorksheetInput struct {
	Subject         string `validate:"required"`
	Difficulty      string `validate:"required,oneof=easy medium hard"`
	Topic           string
	NumQuestions    int    `validate:"required,gte=1,lte=20"`
	UserID          string `validate:"required"`
	TempWorksheetID string `validate:"required"`
	PDFData         string
}

// GenerationService drives the generation pipeline and reconciles its outcome
// with the placeholder through the lifecycle manager.
type GenerationService interface {
	Generate(ctx context.Context, input GenerateWorksheetInput) (models.Worksheet, error)
}

type generationService struct {
	generator ProblemGenerator
	uploader  FileUploader
	lifecycle WorksheetLifecycle
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewGenerationService constructs the worksheet generation pipeline.
func NewGenerationService(generator ProblemGenerator, uploader FileUploader, lifecycle WorksheetLifecycle, validate *validator.Validate, logger zerolog.Logger) GenerationService {
	return &generationService{
		generator: generator,
		uploader:  uploader,
		lifecycle: lifecycle,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "generation_service").Logger(),
		now:       time.Now,
	}
}

func (s *generationService) Generate(ctx context.Context, input GenerateWorksheetInput) (models.Worksheet, error) {
	if err := s.validator.Struct(input); err != nil {
		return models.Worksheet{}, err
	}
	if input.Topic == "" && input.PDFData == "" {
		return models.Worksheet{}, ErrTopicOrPDFRequired
	}

	worksheet, err := s.generate(ctx, input)
	if err != nil {
		// The placeholder must never be left dangling: record the failure
		// before surfacing the generation error.
		s.lifecycle.FailGeneration(ctx, input.TempWorksheetID, input, err)
		return models.Worksheet{}, fmt.Errorf("%w: %s", ErrGenerationFailed, err)
	}

	return s.lifecycle.CompleteGeneration(ctx, input.TempWorksheetID, worksheet)
}

func (s *generationService) generate(ctx context.Context, input GenerateWorksheetInput) (models.Worksheet, error) {
	fileURL := ""
	if input.PDFData != "" {
		data, err := decodePDFDataURL(input.PDFData)
		if err != nil {
			return models.Worksheet{}, err
		}

		fileURL, err = s.uploader.UploadPDF(ctx, fmt.Sprintf("source-%s", input.TempWorksheetID), data)
		if err != nil {
			return models.Worksheet{}, fmt.Errorf("%w: %s", ErrUploadFailed, err)
		}
	}

	generated, err := s.generator.GenerateProblems(ctx, ai.GenerationInput{
		Subject:       input.Subject,
		Topic:         input.Topic,
		Difficulty:    input.Difficulty,
		NumQuestions:  input.NumQuestions,
		SourceFileURL: fileURL,
	})
	if err != nil {
		return models.Worksheet{}, err
	}

	if err := validateProblemSet(generated); err != nil {
		return models.Worksheet{}, err
	}

	problems := make([]models.Problem, 0, len(generated))
	for _, raw := range generated {
		problems = append(problems, s.buildProblem(raw))
	}

	title := input.Topic
	if title == "" {
		title = fmt.Sprintf("%s worksheet", input.Subject)
	}

	return models.Worksheet{
		ID:         input.TempWorksheetID,
		Title:      s.sanitizer.Sanitize(title),
		Subject:    input.Subject,
		Topic:      input.Topic,
		Difficulty: input.Difficulty,
		CreatedAt:  s.now().UTC(),
		CreatedBy:  input.UserID,
		Problems:   problems,
		HasPDF:     fileURL != "",
		PDFFileRef: fileURL,
	}, nil
}

// buildProblem assigns an id and sanitizes every backend-produced text field.
// A choice list whose entries never match the correct answer is unusable for
// exact-match grading, so the problem is demoted to short-answer.
func (s *generationService) buildProblem(raw ai.GeneratedProblem) models.Problem {
	problem := models.Problem{
		ID:            uuid.NewString(),
		Question:      s.sanitizer.Sanitize(raw.Question),
		CorrectAnswer: s.sanitizer.Sanitize(raw.CorrectAnswer),
		Explanation:   s.sanitizer.Sanitize(raw.Explanation),
		Type:          raw.Type,
	}

	for _, option := range raw.Options {
		problem.Options = append(problem.Options, s.sanitizer.Sanitize(option))
	}

	if len(problem.Options) > 0 && !problem.HasOption(problem.CorrectAnswer) {
		problem.Options = nil
		problem.Type = models.ProblemTypeShortAnswer
	}
	if len(problem.Options) > 0 {
		problem.Type = models.ProblemTypeMultipleChoice
	}

	return problem
}

// validateProblemSet re-checks the decoded problem list against the JSON
// schema; the backend output is untrusted even after a successful decode.
func validateProblemSet(problems []ai.GeneratedProblem) error {
	payload, err := json.Marshal(problems)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return err
	}

	if err := problemSetValidator.Validate(decoded); err != nil {
		return fmt.Errorf("generated problems failed validation: %w", err)
	}

	return nil
}
