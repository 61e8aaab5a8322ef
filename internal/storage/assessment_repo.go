package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssessmentRepo struct {
	db *gorm.DB
}

func NewAssessmentRepo(db *gorm.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

func (r *AssessmentRepo) Create(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return dbError("failed to save assessment", err)
	}
	return nil
}

// ListByOwner returns the owner's assessments oldest first.
func (r *AssessmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]Assessment, error) {
	var rows []Assessment
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError("failed to list assessments", err)
	}
	return rows, nil
}

// AssessmentAggregate is the result of Stats.
type AssessmentAggregate struct {
	Count   int64
	Average float64
	Latest  *Assessment
}

// Stats aggregates an owner's assessment scores.
func (r *AssessmentRepo) Stats(ctx context.Context, ownerID string) (AssessmentAggregate, error) {
	var agg struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).Model(&Assessment{}).
		Select("COUNT(*) AS count, COALESCE(AVG(aggregate_score), 0) AS average").
		Where("owner_id = ?", ownerID).
		Scan(&agg).Error
	if err != nil {
		return AssessmentAggregate{}, dbError("failed to aggregate assessments", err)
	}

	out := AssessmentAggregate{Count: agg.Count, Average: agg.Average}
	if agg.Count == 0 {
		return out, nil
	}

	var latest Assessment
	err = r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return AssessmentAggregate{}, dbError("failed to read latest assessment", err)
	}
	if err == nil {
		out.Latest = &latest
	}
	return out, nil
}
