package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CacheRepo reads and writes cached_insights rows.
type CacheRepo struct {
	db *gorm.DB
}

func NewCacheRepo(db *gorm.DB) *CacheRepo {
	return &CacheRepo{db: db}
}

// Find returns the row for (namespace, key), or nil when there is none.
func (r *CacheRepo) Find(ctx context.Context, namespace, key string) (*CachedInsight, error) {
	var row CachedInsight
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND cache_key = ?", namespace, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("failed to read cached insight", err)
	}
	return &row, nil
}

// Insert writes a new row. A concurrent writer holding the same key makes it
// fail with ErrConflict.
func (r *CacheRepo) Insert(ctx context.Context, row *CachedInsight) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(row).Error
	if isDuplicateKey(err) {
		return ErrConflict
	}
	if err != nil {
		return dbError("failed to insert cached insight", err)
	}
	return nil
}

// DeleteByID removes one specific row. Deleting by ID rather than by key
// leaves a fresh row written by another process untouched.
func (r *CacheRepo) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&CachedInsight{})
	if res.Error != nil {
		return false, dbError("failed to delete cached insight", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByKey removes whatever row is stored under (namespace, key).
func (r *CacheRepo) DeleteByKey(ctx context.Context, namespace, key string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("namespace = ? AND cache_key = ?", namespace, key).
		Delete(&CachedInsight{})
	if res.Error != nil {
		return false, dbError("failed to delete cached insight", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Count returns the number of rows stored under namespace.
func (r *CacheRepo) Count(ctx context.Context, namespace string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&CachedInsight{}).Where("namespace = ?", namespace).Count(&n).Error; err != nil {
		return 0, dbError("failed to count cached insights", err)
	}
	return n, nil
}
