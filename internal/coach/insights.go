package coach

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// IndustryKey is the cache key of an industry: trimmed and lower-cased so
// that "Tech" and "tech " share one row.
func IndustryKey(industry string) string {
	return strings.ToLower(strings.TrimSpace(industry))
}

// Insight returns the cached insight for an industry, generating it on a
// miss, expiry or degenerate row.
func (s *Service) Insight(ctx context.Context, industry string) (*types.InsightReport, error) {
	if err := requireField("industry", industry); err != nil {
		return nil, err
	}
	key := IndustryKey(industry)

	prompt := s.prompts.Render(ai.TemplateInsight, map[string]string{"industry": key})
	row, err := s.cache.GetOrCreate(ctx, NamespaceIndustry, key,
		structured.Producer(s.generator(config.OpInsight), prompt, schema.IndustryInsight))
	if err != nil {
		return nil, err
	}
	return insightReport(row)
}

// InvalidateInsight drops the cached insight so the next read regenerates it.
func (s *Service) InvalidateInsight(ctx context.Context, industry string) (bool, error) {
	if err := requireField("industry", industry); err != nil {
		return false, err
	}
	return s.cache.Invalidate(ctx, NamespaceIndustry, IndustryKey(industry))
}

func insightReport(row *storage.CachedInsight) (*types.InsightReport, error) {
	insight, err := cache.Decode[types.IndustryInsight](row)
	if err != nil {
		return nil, err
	}
	return &types.InsightReport{
		Industry:    row.Key,
		Insight:     insight,
		Degenerate:  row.Degenerate,
		GeneratedAt: row.GeneratedAt,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

// OnboardResult is the saved profile and the insight of its industry.
// Insight is nil when it could not be generated.
type OnboardResult struct {
	Profile types.Profile        `json:"profile"`
	Insight *types.InsightReport `json:"insight,omitempty"`
}

// Onboard makes sure the industry has an insight, then saves the profile.
// A failed insight does not block onboarding; it is generated again on the
// next read.
func (s *Service) Onboard(ctx context.Context, owner string, profile types.Profile) (*OnboardResult, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := requireField("industry", profile.Industry); err != nil {
		return nil, err
	}
	if profile.Experience < 0 {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			"experience cannot be negative", nil).WithContext("field", "experience")
	}

	result := &OnboardResult{}
	insight, err := s.Insight(ctx, profile.Industry)
	if err != nil {
		s.logger.LogError(err, "Insight generation failed during onboarding, continuing",
			"owner", owner,
			"industry", profile.Industry)
	} else {
		result.Insight = insight
	}

	skills, err := json.Marshal(cleanList(profile.Skills))
	if err != nil {
		return nil, apperrors.NewInternalError(apperrors.ErrCodeInvalidRequest, "failed to encode skills", err)
	}
	row := &storage.Profile{
		OwnerID:    owner,
		Name:       strings.TrimSpace(profile.Name),
		Industry:   IndustryKey(profile.Industry),
		Experience: profile.Experience,
		Bio:        strings.TrimSpace(profile.Bio),
		Skills:     datatypes.JSON(skills),
	}
	if err := s.profiles.Upsert(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("Profile onboarded", "owner", owner, "industry", row.Industry)
	result.Profile = profileFromRow(row)
	return result, nil
}

// Profile returns the owner's profile or a not-found error.
func (s *Service) Profile(ctx context.Context, owner string) (*types.Profile, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row, err := s.profiles.Get(ctx, owner)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	p := profileFromRow(row)
	return &p, nil
}

// profileOrEmpty returns the owner's profile, or an empty one when the
// owner never onboarded.
func (s *Service) profileOrEmpty(ctx context.Context, owner string) (types.Profile, error) {
	p, err := s.Profile(ctx, owner)
	if apperrors.HasType(err, apperrors.ErrorTypeNotFound) {
		return types.Profile{}, nil
	}
	if err != nil {
		return types.Profile{}, err
	}
	return *p, nil
}

func profileFromRow(row *storage.Profile) types.Profile {
	var skills []string
	if len(row.Skills) > 0 {
		_ = json.Unmarshal(row.Skills, &skills)
	}
	return types.Profile{
		Name:       row.Name,
		Industry:   row.Industry,
		Experience: row.Experience,
		Bio:        row.Bio,
		Skills:     skills,
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
