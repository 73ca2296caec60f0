package repository

import (
	"context"
	"encoding/json"

	"github.com/insieme-app/insieme-api/internal/docstore"
	"github.com/insieme-app/insieme-api/internal/models"
)

// CollectionWorksheets is the document collection holding worksheets.
const CollectionWorksheets = "worksheets"

// ErrWorksheetNotFound is returned when no worksheet exists under an id.
var ErrWorksheetNotFound = docstore.ErrNotFound

// WorksheetRepository defines data operations for worksheets.
type WorksheetRepository interface {
	GetByID(ctx context.Context, id string) (models.Worksheet, error)
	Put(ctx context.Context, worksheet models.Worksheet) error
	ListByCreator(ctx context.Context, userID string) ([]models.Worksheet, error)
}

type worksheetRepository struct {
	store docstore.Store
}

// NewWorksheetRepository instantiates the repository.
func NewWorksheetRepository(store docstore.Store) WorksheetRepository {
	return &worksheetRepository{store: store}
}

func (r *worksheetRepository) GetByID(ctx context.Context, id string) (models.Worksheet, error) {
	var worksheet models.Worksheet
	if err := r.store.Get(ctx, CollectionWorksheets, id, &worksheet); err != nil {
		return models.Worksheet{}, err
	}
	worksheet.ID = id
	return worksheet, nil
}

// Put writes the worksheet under its own id, creating or overwriting it.
func (r *worksheetRepository) Put(ctx context.Context, worksheet models.Worksheet) error {
	return r.store.Set(ctx, CollectionWorksheets, worksheet.ID, worksheet)
}

func (r *worksheetRepository) ListByCreator(ctx context.Context, userID string) ([]models.Worksheet, error) {
	payloads, err := r.store.ListByField(ctx, CollectionWorksheets, "createdBy", userID)
	if err != nil {
		return nil, err
	}

	worksheets := make([]models.Worksheet, 0, len(payloads))
	for _, payload := range payloads {
		var worksheet models.Worksheet
		if err := json.Unmarshal(payload, &worksheet); err != nil {
			return nil, err
		}
		worksheets = append(worksheets, worksheet)
	}

	return worksheets, nil
}
