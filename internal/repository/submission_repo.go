package repository

import (
	"context"

	"github.com/insieme-app/insieme-api/internal/docstore"
	"github.com/insieme-app/insieme-api/internal/models"
)

// CollectionSubmissions is the document collection holding graded submissions.
const CollectionSubmissions = "worksheet_submissions"

// ErrSubmissionNotFound is returned when no submission exists under an id.
var ErrSubmissionNotFound = docstore.ErrNotFound

// SubmissionRepository defines data operations for worksheet submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (models.Submission, error)
	Put(ctx context.Context, submission models.Submission) error
	Add(ctx context.Context, submission models.Submission) (string, error)
}

type submissionRepository struct {
	store docstore.Store
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(store docstore.Store) SubmissionRepository {
	return &submissionRepository{store: store}
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.store.Get(ctx, CollectionSubmissions, id, &submission); err != nil {
		return models.Submission{}, err
	}
	submission.ID = id
	return submission, nil
}

// Put writes the submission under its deterministic id so that a
// resubmission overwrites the previous attempt.
func (r *submissionRepository) Put(ctx context.Context, submission models.Submission) error {
	return r.store.Set(ctx, CollectionSubmissions, submission.ID, submission)
}

// Add stores a submission under a freshly allocated id. Used for grading
// requests that are not tied to a stored worksheet.
func (r *submissionRepository) Add(ctx context.Context, submission models.Submission) (string, error) {
	return r.store.Add(ctx, CollectionSubmissions, submission)
}
