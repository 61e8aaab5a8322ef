package coach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/cache"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// ResumeKey is the cache key of a résumé: the SHA-256 of its trimmed text.
func ResumeKey(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}

// AnalyzeResume returns the cached analysis of the text. Identical text is
// analyzed once per TTL.
func (s *Service) AnalyzeResume(ctx context.Context, content string) (*types.ResumeAnalysis, error) {
	if err := requireField("resume", content); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)

	prompt := s.prompts.Render(ai.TemplateResumeAnalysis, map[string]string{"resume": content})
	row, err := s.cache.GetOrCreate(ctx, NamespaceResume, ResumeKey(content),
		structured.Producer(s.generator(config.OpResume), prompt, schema.ResumeAnalysis))
	if err != nil {
		return nil, err
	}
	analysis, err := cache.Decode[types.ResumeAnalysis](row)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ImproveText rewrites one résumé section for the owner's industry.
func (s *Service) ImproveText(ctx context.Context, owner string, req types.ImproveRequest) (string, error) {
	if err := requireOwner(owner); err != nil {
		return "", err
	}
	if err := requireField("current", req.Current); err != nil {
		return "", err
	}
	profile, err := s.profileOrEmpty(ctx, owner)
	if err != nil {
		return "", err
	}

	prompt := s.prompts.Render(ai.TemplateImproveText, map[string]string{
		"type":     orDefault(req.Type, "experience"),
		"industry": orDefault(profile.Industry, "general"),
		"current":  req.Current,
	})
	return structured.GenerateText(ctx, s.generator(config.OpResume), prompt)
}

// SaveResume stores the owner's résumé, replacing any previous one.
func (s *Service) SaveResume(ctx context.Context, owner, content string) (*types.Resume, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := requireField("content", content); err != nil {
		return nil, err
	}
	row, err := s.profiles.SaveResume(ctx, owner, content)
	if err != nil {
		return nil, err
	}
	return &types.Resume{Content: row.Content, UpdatedAt: row.UpdatedAt}, nil
}

// Resume returns the owner's saved résumé or a not-found error.
func (s *Service) Resume(ctx context.Context, owner string) (*types.Resume, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	row, err := s.profiles.GetResume(ctx, owner)
	if err != nil {
		return nil, notFound(err, "resume")
	}
	return &types.Resume{Content: row.Content, UpdatedAt: row.UpdatedAt}, nil
}

// resumeOrPlaceholder is the saved résumé text, or a marker for prompts.
func (s *Service) resumeOrPlaceholder(ctx context.Context, owner string) (string, error) {
	r, err := s.Resume(ctx, owner)
	if apperrors.HasType(err, apperrors.ErrorTypeNotFound) {
		return "Not provided", nil
	}
	if err != nil {
		return "", err
	}
	return r.Content, nil
}
