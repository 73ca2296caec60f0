package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/repository"
)

// StaleCreationThreshold is how long a worksheet may sit in "creating" before
// listings treat it as abandoned. It is hidden, never deleted.
const StaleCreationThreshold = 5 * time.Minute

// ErrWorksheetNotReady indicates a submission was attempted against a
// worksheet that is not in the ready state.
var ErrWorksheetNotReady = errors.New("worksheet is not ready for submission")

// WorksheetLifecycle owns the creating -> ready | error and ready -> submitted
// transitions, including reconciling the client-written placeholder with the
// eventual generation outcome.
type WorksheetLifecycle interface {
	CompleteGeneration(ctx context.Context, tempID string, worksheet models.Worksheet) (models.Worksheet, error)
	FailGeneration(ctx context.Context, tempID string, spec GenerateWorksheetInput, cause error)
	MarkSubmitted(ctx context.Context, worksheetID string) error
}

type lifecycleService struct {
	worksheets repository.WorksheetRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewWorksheetLifecycle constructs the lifecycle manager.
func NewWorksheetLifecycle(worksheets repository.WorksheetRepository, logger zerolog.Logger) WorksheetLifecycle {
	return &lifecycleService{
		worksheets: worksheets,
		logger:     logger.With().Str("component", "worksheet_lifecycle").Logger(),
		now:        time.Now,
	}
}

// CompleteGeneration writes the generated worksheet under the placeholder id.
// When the placeholder exists it is overwritten in place; when it never
// landed (or was already consumed) a new document is created under the same
// id so the generation result is never dropped. The write is an upsert, so
// calling this twice for one tempID still leaves exactly one ready document.
func (s *lifecycleService) CompleteGeneration(ctx context.Context, tempID string, worksheet models.Worksheet) (models.Worksheet, error) {
	placeholder, err := s.worksheets.GetByID(ctx, tempID)
	switch {
	case err == nil:
		// Preserve the client-recorded creation metadata.
		if !placeholder.CreatedAt.IsZero() {
			worksheet.CreatedAt = placeholder.CreatedAt
		}
		if worksheet.CreatedBy == "" {
			worksheet.CreatedBy = placeholder.CreatedBy
		}
	case errors.Is(err, repository.ErrWorksheetNotFound):
		s.logger.Warn().Str("worksheet_id", tempID).Msg("placeholder missing, creating worksheet from generation result")
	default:
		return models.Worksheet{}, err
	}

	worksheet.ID = tempID
	worksheet.Status = models.WorksheetStatusReady
	if worksheet.CreatedAt.IsZero() {
		worksheet.CreatedAt = s.now().UTC()
	}

	if err := s.worksheets.Put(ctx, worksheet); err != nil {
		return models.Worksheet{}, err
	}

	s.logger.Info().
		Str("worksheet_id", tempID).
		Int("problems", len(worksheet.Problems)).
		Msg("worksheet generation completed")

	return worksheet, nil
}

// FailGeneration records the failure on the placeholder so the client sees a
// terminal error state instead of a dangling "creating" document. Persistence
// problems here are logged only; they must not mask the generation error the
// caller is about to report.
func (s *lifecycleService) FailGeneration(ctx context.Context, tempID string, spec GenerateWorksheetInput, cause error) {
	worksheet, err := s.worksheets.GetByID(ctx, tempID)
	if err != nil {
		if !errors.Is(err, repository.ErrWorksheetNotFound) {
			s.logger.Error().Err(err).Str("worksheet_id", tempID).Msg("failed to load placeholder for error marking")
			return
		}
		worksheet = models.Worksheet{
			ID:         tempID,
			Title:      spec.Topic,
			Subject:    spec.Subject,
			Topic:      spec.Topic,
			Difficulty: spec.Difficulty,
			CreatedBy:  spec.UserID,
			CreatedAt:  s.now().UTC(),
		}
	}

	if !strings.HasSuffix(worksheet.Title, models.ErrorTitleMarker) {
		worksheet.Title += models.ErrorTitleMarker
	}
	worksheet.Status = models.WorksheetStatusError

	if err := s.worksheets.Put(ctx, worksheet); err != nil {
		s.logger.Error().Err(err).Str("worksheet_id", tempID).Msg("failed to persist error state")
		return
	}

	s.logger.Warn().Err(cause).Str("worksheet_id", tempID).Msg("worksheet generation failed")
}

// MarkSubmitted flips a ready worksheet to submitted. It is called only after
// the submission document has been durably written. Flipping an
// already-submitted worksheet is a no-op.
func (s *lifecycleService) MarkSubmitted(ctx context.Context, worksheetID string) error {
	worksheet, err := s.worksheets.GetByID(ctx, worksheetID)
	if err != nil {
		return err
	}

	if worksheet.Status == models.WorksheetStatusSubmitted {
		return nil
	}

	if !worksheet.CanTransition(models.WorksheetStatusSubmitted) {
		return ErrWorksheetNotReady
	}

	worksheet.Status = models.WorksheetStatusSubmitted
	if err := s.worksheets.Put(ctx, worksheet); err != nil {
		return err
	}

	s.logger.Info().Str("worksheet_id", worksheetID).Msg("worksheet submitted")
	return nil
}
