package dto

import (
	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/service"
)

// GradeAnswersRequest is the payload for POST /gradeAnswers.
type GradeAnswersRequest struct {
	Problems    []models.Problem `json:"problems" validate:"required,min=1"`
	Answers     []models.Answer  `json:"answers" validate:"required"`
	UserID      string           `json:"userId" validate:"required"`
	WorksheetID string           `json:"worksheetId"`
}

// ToInput converts the request into the grading service input.
func (r GradeAnswersRequest) ToInput() service.GradeAnswersInput {
	return service.GradeAnswersInput{
		WorksheetID: r.WorksheetID,
		UserID:      r.UserID,
		Problems:    r.Problems,
		Answers:     r.Answers,
	}
}

// GradeAnswersPDFRequest is the payload for POST /gradeAnswersPDF. The answer
// sheet arrives as a base64 data-URL of the scanned PDF.
type GradeAnswersPDFRequest struct {
	Problems      []models.Problem `json:"problems" validate:"required,min=1"`
	AnswerPDFData string           `json:"answerPDFData" validate:"required"`
	UserID        string           `json:"userId" validate:"required"`
	WorksheetID   string           `json:"worksheetId"`
}

// ToInput converts the request into the extraction service input.
func (r GradeAnswersPDFRequest) ToInput() service.GradeScanInput {
	return service.GradeScanInput{
		WorksheetID:   r.WorksheetID,
		UserID:        r.UserID,
		Problems:      r.Problems,
		AnswerPDFData: r.AnswerPDFData,
	}
}

// GradeAnswersResponse is the grading result wire shape shared by the text
// and PDF endpoints.
type GradeAnswersResponse struct {
	Success           bool                       `json:"success"`
	SubmissionID      string                     `json:"submissionId"`
	GradedAnswers     []models.GradedAnswer      `json:"gradedAnswers"`
	TotalScore        int                        `json:"totalScore"`
	MaxTotalScore     int                        `json:"maxTotalScore"`
	PartialScore      float64                    `json:"partialScore"`
	PercentageScore   int                        `json:"percentageScore"`
	GradingSummary    models.GradingSummary      `json:"gradingSummary"`
	ExtractionDetails *service.ExtractionDetails `json:"extractionDetails,omitempty"`
}

// NewGradeAnswersResponse builds the response from a stored submission.
func NewGradeAnswersResponse(result service.GradeAnswersResult) GradeAnswersResponse {
	return GradeAnswersResponse{
		Success:         true,
		SubmissionID:    result.SubmissionID,
		GradedAnswers:   result.Submission.Answers,
		TotalScore:      result.Submission.Score,
		MaxTotalScore:   result.Submission.TotalProblems,
		PartialScore:    result.Submission.PartialScore,
		PercentageScore: result.Submission.PercentageScore,
		GradingSummary:  result.Submission.Summary,
	}
}

// NewGradeScanResponse builds the PDF-mode response including extraction
// coverage details.
func NewGradeScanResponse(result service.GradeScanResult) GradeAnswersResponse {
	response := NewGradeAnswersResponse(service.GradeAnswersResult{
		SubmissionID: result.SubmissionID,
		Submission:   result.Submission,
	})
	details := result.Details
	response.ExtractionDetails = &details
	return response
}
