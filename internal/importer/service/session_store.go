package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenHire/hireflow/internal/importer/model"
)

// SessionStore persists import sessions with their row results and documents.
type SessionStore interface {
	Create(ctx context.Context, session *model.ImportSession) error
	GetByID(ctx context.Context, sessionID uuid.UUID) (*model.ImportSession, error)
	Save(ctx context.Context, session *model.ImportSession) error
}

// GormSessionStore implements SessionStore on top of GORM.
type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

func (s *GormSessionStore) Create(ctx context.Context, session *model.ImportSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create import session: %w", err)
	}
	return nil
}

func (s *GormSessionStore) GetByID(ctx context.Context, sessionID uuid.UUID) (*model.ImportSession, error) {
	var session model.ImportSession
	err := s.db.WithContext(ctx).
		Preload("RowResults", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_index ASC")
		}).
		Preload("Documents").
		First(&session, "id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Save persists the session and everything hanging off it. Row results and
// documents are only ever appended or resolved in place, so a full
// association save is safe.
func (s *GormSessionStore) Save(ctx context.Context, session *model.ImportSession) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(session).Error
	if err != nil {
		return fmt.Errorf("failed to save import session %s: %w", session.ID, err)
	}
	return nil
}
