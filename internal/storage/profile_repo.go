package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepo stores onboarding profiles and saved résumés, both keyed by
// owner.
type ProfileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Upsert creates or replaces the owner's profile.
func (r *ProfileRepo) Upsert(ctx context.Context, p *Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "industry", "experience", "bio", "skills", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return dbError("failed to save profile", err)
	}
	return nil
}

// Get returns ErrNotFound when the owner never onboarded.
func (r *ProfileRepo) Get(ctx context.Context, ownerID string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbError("failed to read profile", err)
	}
	return &p, nil
}

// SaveResume creates or replaces the owner's résumé.
func (r *ProfileRepo) SaveResume(ctx context.Context, ownerID, content string) (*Resume, error) {
	row := &Resume{OwnerID: ownerID, Content: content, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, dbError("failed to save resume", err)
	}
	return row, nil
}

// GetResume returns ErrNotFound when nothing was saved.
func (r *ProfileRepo) GetResume(ctx context.Context, ownerID string) (*Resume, error) {
	var row Resume
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbError("failed to read resume", err)
	}
	return &row, nil
}
