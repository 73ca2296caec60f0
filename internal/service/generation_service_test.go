package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/pkg/ai"
)

func newGenerationFixture(t *testing.T, generator *fakeGenerator, uploader *fakeUploader) (GenerationService, *memoryWorksheetRepo) {
	t.Helper()

	worksheets := newMemoryWorksheetRepo()
	lifecycle := NewWorksheetLifecycle(worksheets, testLogger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	return NewGenerationService(generator, uploader, lifecycle, validate, testLogger), worksheets
}

func generationInput() GenerateWorksheetInput {
	return GenerateWorksheetInput{
		Subject:         "math",
		Difficulty:      "medium",
		Topic:           "Fractions",
		NumQuestions:    3,
		UserID:          "user-1",
		TempWorksheetID: "temp-1",
	}
}

func TestGenerateProducesReadyWorksheet(t *testing.T) {
	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "What is 1/2 + 1/4?", Options: []string{"3/4", "2/6", "1/8"}, CorrectAnswer: "3/4", Type: models.ProblemTypeMultipleChoice},
		{Question: "Explain equivalent fractions", CorrectAnswer: "Fractions naming the same value", Type: models.ProblemTypeShortAnswer},
	}}
	service, worksheets := newGenerationFixture(t, generator, &fakeUploader{})
	worksheets.worksheets["temp-1"] = models.Worksheet{ID: "temp-1", Status: models.WorksheetStatusCreating, CreatedBy: "user-1"}

	worksheet, err := service.Generate(context.Background(), generationInput())
	require.NoError(t, err)
	require.Equal(t, "temp-1", worksheet.ID)
	require.Equal(t, models.WorksheetStatusReady, worksheet.Status)
	require.Equal(t, "Fractions", worksheet.Title)
	require.Len(t, worksheet.Problems, 2)

	for _, problem := range worksheet.Problems {
		require.NotEmpty(t, problem.ID)
	}

	stored := worksheets.worksheets["temp-1"]
	require.Equal(t, models.WorksheetStatusReady, stored.Status)
}

func TestGenerateFailureMarksPlaceholderErrored(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("backend down")}
	service, worksheets := newGenerationFixture(t, generator, &fakeUploader{})
	worksheets.worksheets["temp-1"] = models.Worksheet{
		ID:     "temp-1",
		Title:  "Fractions",
		Status: models.WorksheetStatusCreating,
	}

	_, err := service.Generate(context.Background(), generationInput())
	require.ErrorIs(t, err, ErrGenerationFailed)

	stored := worksheets.worksheets["temp-1"]
	require.Equal(t, models.WorksheetStatusError, stored.Status)
	require.Equal(t, "Fractions"+models.ErrorTitleMarker, stored.Title)
}

func TestGenerateRequiresTopicOrPDF(t *testing.T) {
	generator := &fakeGenerator{}
	service, _ := newGenerationFixture(t, generator, &fakeUploader{})

	input := generationInput()
	input.Topic = ""

	_, err := service.Generate(context.Background(), input)
	require.ErrorIs(t, err, ErrTopicOrPDFRequired)
	require.Equal(t, 0, generator.calls)
}

func TestGenerateFromPDFUploadsSource(t *testing.T) {
	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "What does the document define?", CorrectAnswer: "A cell", Type: models.ProblemTypeShortAnswer},
	}}
	uploader := &fakeUploader{url: "https://files.example.com/source.pdf"}
	service, _ := newGenerationFixture(t, generator, uploader)

	input := generationInput()
	input.Topic = ""
	input.PDFData = pdfDataURL()

	worksheet, err := service.Generate(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 1, uploader.calls)
	require.Equal(t, "https://files.example.com/source.pdf", generator.lastIn.SourceFileURL)
	require.True(t, worksheet.HasPDF)
	require.Equal(t, "https://files.example.com/source.pdf", worksheet.PDFFileRef)
	require.Equal(t, "math worksheet", worksheet.Title)
}

func TestGenerateRejectsInvalidSchema(t *testing.T) {
	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "", CorrectAnswer: "", Type: "riddle"},
	}}
	service, worksheets := newGenerationFixture(t, generator, &fakeUploader{})
	worksheets.worksheets["temp-1"] = models.Worksheet{ID: "temp-1", Status: models.WorksheetStatusCreating}

	_, err := service.Generate(context.Background(), generationInput())
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, models.WorksheetStatusError, worksheets.worksheets["temp-1"].Status)
}

func TestGenerateSanitizesBackendText(t *testing.T) {
	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "<script>alert(1)</script>What is water?", CorrectAnswer: "H2O", Type: models.ProblemTypeShortAnswer},
	}}
	service, _ := newGenerationFixture(t, generator, &fakeUploader{})

	worksheet, err := service.Generate(context.Background(), generationInput())
	require.NoError(t, err)
	require.Equal(t, "What is water?", worksheet.Problems[0].Question)
}

func TestGenerateDemotesChoiceListWithoutCorrectOption(t *testing.T) {
	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "Pick one", Options: []string{"A", "B"}, CorrectAnswer: "C", Type: models.ProblemTypeMultipleChoice},
	}}
	service, _ := newGenerationFixture(t, generator, &fakeUploader{})

	worksheet, err := service.Generate(context.Background(), generationInput())
	require.NoError(t, err)

	problem := worksheet.Problems[0]
	require.Empty(t, problem.Options)
	require.Equal(t, models.ProblemTypeShortAnswer, problem.Type)
	require.False(t, problem.IsMultipleChoice())
}

func TestGenerateRejectsOutOfRangeQuestionCount(t *testing.T) {
	service, _ := newGenerationFixture(t, &fakeGenerator{}, &fakeUploader{})

	input := generationInput()
	input.NumQuestions = 50

	_, err := service.Generate(context.Background(), input)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestGenerateThenGradeFlow(t *testing.T) {
	worksheets := newMemoryWorksheetRepo()
	submissions := newMemorySubmissionRepo()
	lifecycle := NewWorksheetLifecycle(worksheets, testLogger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	generator := &fakeGenerator{problems: []ai.GeneratedProblem{
		{Question: "Which is 1/2?", Options: []string{"0.5", "0.25", "2"}, CorrectAnswer: "0.5", Type: models.ProblemTypeMultipleChoice},
		{Question: "Explain a numerator", CorrectAnswer: "top part of a fraction", Type: models.ProblemTypeShortAnswer},
		{Question: "Explain a denominator", CorrectAnswer: "bottom part of a fraction", Type: models.ProblemTypeShortAnswer},
	}}
	generation := NewGenerationService(generator, &fakeUploader{}, lifecycle, validate, testLogger)

	scores := []float64{0.8, 0.5}
	grader := &fakeGrader{}
	grader.grade = func(input ai.GradingInput) (ai.GradeResult, error) {
		score := scores[grader.calls-1]
		return ai.GradeResult{Score: score, Confidence: 0.9}, nil
	}
	grading := NewGradingService(grader, submissions, lifecycle, validate, testLogger)

	worksheets.worksheets["temp_1"] = models.Worksheet{ID: "temp_1", Status: models.WorksheetStatusCreating, CreatedBy: "user-1"}

	input := generationInput()
	input.TempWorksheetID = "temp_1"

	worksheet, err := generation.Generate(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, models.WorksheetStatusReady, worksheet.Status)
	require.Len(t, worksheet.Problems, 3)

	answers := []models.Answer{
		{ProblemID: worksheet.Problems[0].ID, Answer: "0.5"},
		{ProblemID: worksheet.Problems[1].ID, Answer: "the upper number"},
		{ProblemID: worksheet.Problems[2].ID, Answer: "the lower number"},
	}

	result, err := grading.GradeAnswers(context.Background(), GradeAnswersInput{
		WorksheetID: "temp_1",
		UserID:      "user-1",
		Problems:    worksheet.Problems,
		Answers:     answers,
	})
	require.NoError(t, err)

	require.Equal(t, 2, result.Submission.Score)
	require.Equal(t, 77, result.Submission.PercentageScore)
	require.Equal(t, models.WorksheetStatusSubmitted, worksheets.worksheets["temp_1"].Status)
}
