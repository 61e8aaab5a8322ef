package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CachedInsight is one generated payload stored under (namespace, key).
// The unique index is what serializes concurrent writers. Rows are never
// updated: they are deleted and re-inserted.
type CachedInsight struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Namespace   string         `gorm:"column:namespace;not null;size:64;index:idx_cached_insight_key,unique,priority:1" json:"namespace"`
	Key         string         `gorm:"column:cache_key;not null;size:255;index:idx_cached_insight_key,unique,priority:2" json:"key"`
	Payload     datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	Degenerate  bool           `gorm:"column:degenerate;not null;default:false" json:"degenerate"`
	GeneratedAt time.Time      `gorm:"column:generated_at;not null" json:"generatedAt"`
	ExpiresAt   time.Time      `gorm:"column:expires_at;not null;index" json:"expiresAt"`
}

func (CachedInsight) TableName() string { return "cached_insights" }

// Expired reports whether the row is stale at now.
func (c *CachedInsight) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Assessment is a persisted session summary (quiz or mock interview).
type Assessment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        string         `gorm:"column:owner_id;not null;size:128;index:idx_assessment_owner_created,priority:1" json:"ownerId"`
	Category       string         `gorm:"column:category;not null;size:32" json:"category"`
	Questions      datatypes.JSON `gorm:"column:questions;not null" json:"questions"`
	Answers        datatypes.JSON `gorm:"column:answers;not null" json:"answers"`
	Feedback       string         `gorm:"column:feedback" json:"feedback"`
	AggregateScore float64        `gorm:"column:aggregate_score;not null" json:"aggregateScore"`
	ImprovementTip *string        `gorm:"column:improvement_tip" json:"improvementTip,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index:idx_assessment_owner_created,priority:2" json:"createdAt"`
}

func (Assessment) TableName() string { return "assessments" }

// Profile holds onboarding data keyed by owner.
type Profile struct {
	OwnerID    string         `gorm:"column:owner_id;primaryKey;size:128" json:"ownerId"`
	Name       string         `gorm:"column:name;size:255" json:"name"`
	Industry   string         `gorm:"column:industry;not null;size:255;index" json:"industry"`
	Experience int            `gorm:"column:experience" json:"experience"`
	Bio        string         `gorm:"column:bio" json:"bio"`
	Skills     datatypes.JSON `gorm:"column:skills" json:"skills"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (Profile) TableName() string { return "profiles" }

// Resume is the one saved résumé of an owner.
type Resume struct {
	OwnerID   string    `gorm:"column:owner_id;primaryKey;size:128" json:"ownerId"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Resume) TableName() string { return "resumes" }

// CoverLetter is a generated letter owned by one principal.
type CoverLetter struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        string    `gorm:"column:owner_id;not null;size:128;index" json:"ownerId"`
	JobTitle       string    `gorm:"column:job_title;not null" json:"jobTitle"`
	CompanyName    string    `gorm:"column:company_name;not null" json:"companyName"`
	JobDescription string    `gorm:"column:job_description" json:"jobDescription"`
	Content        string    `gorm:"column:content;not null" json:"content"`
	Status         string    `gorm:"column:status;not null;size:32" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

func (CoverLetter) TableName() string { return "cover_letters" }

// Models lists every table managed by Migrate.
func Models() []any {
	return []any{
		&CachedInsight{},
		&Assessment{},
		&Profile{},
		&Resume{},
		&CoverLetter{},
	}
}
