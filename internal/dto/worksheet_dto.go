package dto

import "github.com/insieme-app/insieme-api/internal/models"

// WorksheetListResponse is the active-worksheet listing for a creator.
type WorksheetListResponse struct {
	Success    bool               `json:"success"`
	Worksheets []models.Worksheet `json:"worksheets"`
	Count      int                `json:"count"`
}

// NewWorksheetListResponse wraps the filtered listing.
func NewWorksheetListResponse(worksheets []models.Worksheet) WorksheetListResponse {
	return WorksheetListResponse{
		Success:    true,
		Worksheets: worksheets,
		Count:      len(worksheets),
	}
}

// WorksheetResponse wraps a single worksheet.
type WorksheetResponse struct {
	Success   bool             `json:"success"`
	Worksheet models.Worksheet `json:"worksheet"`
}

// SubmissionResponse wraps a previously stored submission.
type SubmissionResponse struct {
	Success    bool              `json:"success"`
	Submission models.Submission `json:"submission"`
}
