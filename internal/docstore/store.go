package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates no document exists under the requested collection and id.
var ErrNotFound = errors.New("document not found")

// Document is one JSON payload addressed by collection and id. Writes are
// last-writer-wins; there are no cross-document transactions.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	DocID      string         `gorm:"primaryKey;size:128;column:doc_id"`
	Data       datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store exposes key-value document operations over a relational backend.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	Set(ctx context.Context, collection, id string, value any) error
	Update(ctx context.Context, collection, id string, value any) error
	Add(ctx context.Context, collection string, value any) (string, error)
	ListByField(ctx context.Context, collection, field, value string) ([]json.RawMessage, error)
}

type gormStore struct {
	db *gorm.DB
}

// New builds a document store backed by the provided gorm connection.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Migrate creates the backing documents table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{})
}

func (s *gormStore) Get(ctx context.Context, collection, id string, out any) error {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := json.Unmarshal(doc.Data, out); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}

	return nil
}

// Set creates or overwrites the document under the given id.
func (s *gormStore) Set(ctx context.Context, collection, id string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	doc := Document{Collection: collection, DocID: id, Data: payload}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&doc).Error
}

// Update overwrites an existing document and fails with ErrNotFound when the
// document is absent.
func (s *gormStore) Update(ctx context.Context, collection, id string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}

	result := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("data", datatypes.JSON(payload))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Add stores the value under a freshly allocated id and returns it.
func (s *gormStore) Add(ctx context.Context, collection string, value any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, value); err != nil {
		return "", err
	}
	return id, nil
}

func (s *gormStore) ListByField(ctx context.Context, collection, field, value string) ([]json.RawMessage, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("data").Equals(value, field)).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	payloads := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		payloads = append(payloads, json.RawMessage(doc.Data))
	}

	return payloads, nil
}
