package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/repository"
	"github.com/insieme-app/insieme-api/pkg/ai"
)

var testLogger = zerolog.New(io.Discard)

type memoryWorksheetRepo struct {
	worksheets map[string]models.Worksheet
	putErr     error
}

func newMemoryWorksheetRepo() *memoryWorksheetRepo {
	return &memoryWorksheetRepo{worksheets: make(map[string]models.Worksheet)}
}

func (m *memoryWorksheetRepo) GetByID(ctx context.Context, id string) (models.Worksheet, error) {
	worksheet, ok := m.worksheets[id]
	if !ok {
		return models.Worksheet{}, repository.ErrWorksheetNotFound
	}
	return worksheet, nil
}

func (m *memoryWorksheetRepo) Put(ctx context.Context, worksheet models.Worksheet) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.worksheets[worksheet.ID] = worksheet
	return nil
}

func (m *memoryWorksheetRepo) ListByCreator(ctx context.Context, userID string) ([]models.Worksheet, error) {
	results := make([]models.Worksheet, 0, len(m.worksheets))
	for _, worksheet := range m.worksheets {
		if worksheet.CreatedBy == userID {
			results = append(results, worksheet)
		}
	}
	return results, nil
}

type memorySubmissionRepo struct {
	submissions map[string]models.Submission
	putErr      error
	nextID      int
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[string]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id string) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, repository.ErrSubmissionNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) Put(ctx context.Context, submission models.Submission) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.submissions[submission.ID] = submission
	return nil
}

func (m *memorySubmissionRepo) Add(ctx context.Context, submission models.Submission) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	id := fmt.Sprintf("generated-%d", m.nextID)
	m.nextID++
	submission.ID = id
	m.submissions[id] = submission
	return id, nil
}

type fakeGrader struct {
	calls int
	grade func(input ai.GradingInput) (ai.GradeResult, error)
}

func (f *fakeGrader) GradeAnswer(ctx context.Context, input ai.GradingInput) (ai.GradeResult, error) {
	f.calls++
	if f.grade == nil {
		return ai.GradeResult{Score: 1, Feedback: "Well done.", Confidence: 0.9}, nil
	}
	return f.grade(input)
}

type fakeGenerator struct {
	calls    int
	problems []ai.GeneratedProblem
	err      error
	lastIn   ai.GenerationInput
}

func (f *fakeGenerator) GenerateProblems(ctx context.Context, input ai.GenerationInput) ([]ai.GeneratedProblem, error) {
	f.calls++
	f.lastIn = input
	if f.err != nil {
		return nil, f.err
	}
	return f.problems, nil
}

type fakeExtractor struct {
	calls   int
	answers []ai.ExtractedAnswer
	err     error
	lastIn  ai.ExtractionInput
}

func (f *fakeExtractor) ExtractAnswers(ctx context.Context, input ai.ExtractionInput) ([]ai.ExtractedAnswer, error) {
	f.calls++
	f.lastIn = input
	if f.err != nil {
		return nil, f.err
	}
	return f.answers, nil
}

type fakeUploader struct {
	calls int
	err   error
	url   string
}

func (f *fakeUploader) UploadPDF(ctx context.Context, name string, data []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://files.example.com/" + name + ".pdf", nil
}

// pdfDataURL yields a minimal but well-formed PDF payload as a data-URL.
func pdfDataURL() string {
	raw := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(raw)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
