package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/insieme-app/insieme-api/internal/dto"
	"github.com/insieme-app/insieme-api/internal/handler"
	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/service"
)

type mockGradingService struct {
	lastInput service.GradeAnswersInput
	result    service.GradeAnswersResult
	err       error
}

func (m *mockGradingService) GradeAnswers(_ context.Context, input service.GradeAnswersInput) (service.GradeAnswersResult, error) {
	m.lastInput = input
	if m.err != nil {
		return service.GradeAnswersResult{}, m.err
	}
	return m.result, nil
}

type mockExtractionService struct {
	lastInput service.GradeScanInput
	result    service.GradeScanResult
	err       error
}

func (m *mockExtractionService) GradeFromScan(_ context.Context, input service.GradeScanInput) (service.GradeScanResult, error) {
	m.lastInput = input
	if m.err != nil {
		return service.GradeScanResult{}, m.err
	}
	return m.result, nil
}

func newGradingApp(grading service.GradingService, extraction service.ExtractionService) *fiber.App {
	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	app := fiber.New()
	handler.NewGradingHandler(grading, extraction, validate, logger).Register(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func gradedSubmission() models.Submission {
	return models.Submission{
		ID:          "ws-1_user-1",
		WorksheetID: "ws-1",
		UserID:      "user-1",
		Answers: []models.GradedAnswer{
			{ProblemID: "p1", Answer: "A", IsCorrect: true, PartialScore: 1, MaxScore: 1, Confidence: 1},
		},
		Score:           1,
		TotalProblems:   1,
		PartialScore:    1,
		PercentageScore: 100,
		GradingMethod:   models.GradingMethodBasic,
		GradingVersion:  models.GradingVersion,
		Summary:         models.GradingSummary{Correct: 1, Total: 1, AverageConfidence: 1},
	}
}

func TestGradingHandler_GradeAnswersSuccess(t *testing.T) {
	grading := &mockGradingService{result: service.GradeAnswersResult{
		SubmissionID: "ws-1_user-1",
		Submission:   gradedSubmission(),
	}}
	app := newGradingApp(grading, &mockExtractionService{})

	resp := postJSON(t, app, "/gradeAnswers", dto.GradeAnswersRequest{
		WorksheetID: "ws-1",
		UserID:      "user-1",
		Problems:    []models.Problem{{ID: "p1", Question: "Pick", CorrectAnswer: "A", Options: []string{"A", "B"}}},
		Answers:     []models.Answer{{ProblemID: "p1", Answer: "A"}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response dto.GradeAnswersResponse
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "ws-1_user-1", response.SubmissionID)
	require.Equal(t, 100, response.PercentageScore)
	require.Nil(t, response.ExtractionDetails)
	require.Equal(t, "ws-1", grading.lastInput.WorksheetID)
}

func TestGradingHandler_GradeAnswersRejectsEmptyProblems(t *testing.T) {
	grading := &mockGradingService{}
	app := newGradingApp(grading, &mockExtractionService{})

	resp := postJSON(t, app, "/gradeAnswers", map[string]any{
		"userId":   "user-1",
		"problems": []any{},
		"answers":  []any{},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, grading.lastInput.UserID)
}

func TestGradingHandler_GradeAnswersPDFSuccess(t *testing.T) {
	extraction := &mockExtractionService{result: service.GradeScanResult{
		SubmissionID: "ws-1_user-1",
		Submission:   gradedSubmission(),
		Details:      service.ExtractionDetails{RecognizedAnswers: 1, TotalProblems: 1},
	}}
	app := newGradingApp(&mockGradingService{}, extraction)

	resp := postJSON(t, app, "/gradeAnswersPDF", dto.GradeAnswersPDFRequest{
		WorksheetID:   "ws-1",
		UserID:        "user-1",
		Problems:      []models.Problem{{ID: "p1", Question: "Explain", CorrectAnswer: "because"}},
		AnswerPDFData: "data:application/pdf;base64,JVBERi0xLjQK",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response dto.GradeAnswersResponse
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.NotNil(t, response.ExtractionDetails)
	require.Equal(t, 1, response.ExtractionDetails.RecognizedAnswers)
}

func TestGradingHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "invalid pdf", err: service.ErrInvalidPDF, statusCode: fiber.StatusBadRequest},
		{name: "unparsable extraction", err: service.ErrExtractionUnparsable, statusCode: fiber.StatusBadGateway},
		{name: "upload failed", err: service.ErrUploadFailed, statusCode: fiber.StatusBadGateway},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			extraction := &mockExtractionService{err: tc.err}
			app := newGradingApp(&mockGradingService{}, extraction)

			resp := postJSON(t, app, "/gradeAnswersPDF", dto.GradeAnswersPDFRequest{
				UserID:        "user-1",
				Problems:      []models.Problem{{ID: "p1", Question: "Explain", CorrectAnswer: "because"}},
				AnswerPDFData: "data:application/pdf;base64,JVBERi0xLjQK",
			})
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
