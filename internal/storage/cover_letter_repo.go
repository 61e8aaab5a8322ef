package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoverLetterRepo struct {
	db *gorm.DB
}

func NewCoverLetterRepo(db *gorm.DB) *CoverLetterRepo {
	return &CoverLetterRepo{db: db}
}

func (r *CoverLetterRepo) Create(ctx context.Context, cl *CoverLetter) error {
	if cl.ID == uuid.Nil {
		cl.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(cl).Error; err != nil {
		return dbError("failed to save cover letter", err)
	}
	return nil
}

// ListByOwner returns the owner's letters newest first.
func (r *CoverLetterRepo) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	var rows []CoverLetter
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError("failed to list cover letters", err)
	}
	return rows, nil
}

// Get returns ErrNotFound when the letter does not exist or belongs to
// someone else.
func (r *CoverLetterRepo) Get(ctx context.Context, ownerID string, id uuid.UUID) (*CoverLetter, error) {
	var row CoverLetter
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbError("failed to read cover letter", err)
	}
	return &row, nil
}

func (r *CoverLetterRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&CoverLetter{})
	if res.Error != nil {
		return dbError("failed to delete cover letter", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
