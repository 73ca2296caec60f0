package models

import "time"

// WorksheetStatus enumerates the lifecycle states of a worksheet.
const (
	WorksheetStatusCreating  = "creating"
	WorksheetStatusError     = "error"
	WorksheetStatusReady     = "ready"
	WorksheetStatusSubmitted = "submitted"
)

// ErrorTitleMarker is appended to the title of a worksheet whose generation failed.
const ErrorTitleMarker = " [generation failed]"

// Worksheet represents a generated set of problems sharing one creation request.
// It is stored as a single document in the "worksheets" collection.
type Worksheet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	Topic       string    `json:"topic"`
	Difficulty  string    `json:"difficulty"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
	Problems    []Problem `json:"problems"`
	Status      string    `json:"status"`
	HasPDF      bool      `json:"hasPDF,omitempty"`
	PDFFileRef  string    `json:"pdfFileRef,omitempty"`
}

// CanTransition reports whether the status change is a legal lifecycle move.
// creating may become ready or error; ready may become submitted. Everything
// else is frozen.
func (w Worksheet) CanTransition(next string) bool {
	switch w.Status {
	case WorksheetStatusCreating:
		return next == WorksheetStatusReady || next == WorksheetStatusError
	case WorksheetStatusReady:
		return next == WorksheetStatusSubmitted
	default:
		return false
	}
}

// IsStale reports whether a still-creating worksheet should be treated as
// abandoned. Stale placeholders are hidden from active views, never deleted.
func (w Worksheet) IsStale(reference time.Time, threshold time.Duration) bool {
	if w.Status != WorksheetStatusCreating {
		return false
	}
	return reference.Sub(w.CreatedAt) > threshold
}
