package dto

import (
	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/service"
)

// GenerateProblemsRequest is the payload for POST /generateProblems. Either
// topic or pdfData (base64 data-URL) must be present; both together means
// "generate from this document about this topic".
type GenerateProblemsRequest struct {
	Subject         string `json:"subject" validate:"required"`
	Difficulty      string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Topic           string `json:"topic"`
	NumQuestions    int    `json:"numQuestions" validate:"required,gte=1,lte=20"`
	UserID          string `json:"userId" validate:"required"`
	TempWorksheetID string `json:"tempWorksheetId" validate:"required"`
	PDFData         string `json:"pdfData"`
}

// ToInput converts the request into the generation service input.
func (r GenerateProblemsRequest) ToInput() service.GenerateWorksheetInput {
	return service.GenerateWorksheetInput{
		Subject:         r.Subject,
		Difficulty:      r.Difficulty,
		Topic:           r.Topic,
		NumQuestions:    r.NumQuestions,
		UserID:          r.UserID,
		TempWorksheetID: r.TempWorksheetID,
		PDFData:         r.PDFData,
	}
}

// GenerateProblemsResponse is returned after a successful generation.
type GenerateProblemsResponse struct {
	Success   bool             `json:"success"`
	Worksheet models.Worksheet `json:"worksheet"`
	Count     int              `json:"count"`
}

// NewGenerateProblemsResponse builds the response from the final worksheet.
func NewGenerateProblemsResponse(worksheet models.Worksheet) GenerateProblemsResponse {
	return GenerateProblemsResponse{
		Success:   true,
		Worksheet: worksheet,
		Count:     len(worksheet.Problems),
	}
}
