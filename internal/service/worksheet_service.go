package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/repository"
)

// WorksheetService serves the read side: single worksheets, prior
// submissions, and the active listing with the stale-placeholder filter.
type WorksheetService interface {
	Get(ctx context.Context, id string) (models.Worksheet, error)
	ListActive(ctx context.Context, userID string) ([]models.Worksheet, error)
	SubmissionFor(ctx context.Context, worksheetID, userID string) (models.Submission, error)
}

type worksheetService struct {
	worksheets     repository.WorksheetRepository
	submissions    repository.SubmissionRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	staleThreshold time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewWorksheetService builds the read-side worksheet service.
func NewWorksheetService(worksheets repository.WorksheetRepository, submissions repository.SubmissionRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) WorksheetService {
	return &worksheetService{
		worksheets:     worksheets,
		submissions:    submissions,
		cache:          cache,
		cacheTTL:       cacheTTL,
		staleThreshold: StaleCreationThreshold,
		logger:         logger.With().Str("component", "worksheet_service").Logger(),
		now:            time.Now,
	}
}

func (s *worksheetService) Get(ctx context.Context, id string) (models.Worksheet, error) {
	return s.worksheets.GetByID(ctx, id)
}

// ListActive returns the creator's worksheets, newest first, excluding
// placeholders stuck in "creating" beyond the staleness threshold. Stuck
// placeholders are only hidden; the documents stay put for diagnostics.
func (s *worksheetService) ListActive(ctx context.Context, userID string) ([]models.Worksheet, error) {
	cacheKey := fmt.Sprintf("worksheets:active:%s", userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var worksheets []models.Worksheet
			if unmarshalErr := json.Unmarshal([]byte(cached), &worksheets); unmarshalErr == nil {
				s.logger.Debug().Str("user_id", userID).Msg("worksheet list cache hit")
				return worksheets, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read worksheet list cache")
		}
	}

	all, err := s.worksheets.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]models.Worksheet, 0, len(all))
	for _, worksheet := range all {
		if worksheet.IsStale(now, s.staleThreshold) {
			s.logger.Warn().Str("worksheet_id", worksheet.ID).Msg("hiding stuck creating worksheet")
			continue
		}
		active = append(active, worksheet)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(active); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store worksheet list cache")
			}
		}
	}

	return active, nil
}

// SubmissionFor loads the prior attempt stored under the deterministic
// submission id, used by clients to restore answers on revisit.
func (s *worksheetService) SubmissionFor(ctx context.Context, worksheetID, userID string) (models.Submission, error) {
	return s.submissions.GetByID(ctx, models.SubmissionID(worksheetID, userID))
}
