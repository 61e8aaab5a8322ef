package coach

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Tanishka82/nexa-app/internal/ai"
	"github.com/Tanishka82/nexa-app/internal/config"
	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/storage"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

const CoverLetterStatusCompleted = "completed"

// GenerateCoverLetter writes a letter from the owner's profile and saved
// résumé and stores it. Nothing is stored when generation fails.
func (s *Service) GenerateCoverLetter(ctx context.Context, owner string, req types.CoverLetterRequest) (*types.CoverLetter, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	for _, f := range []struct{ name, value string }{
		{"jobTitle", req.JobTitle},
		{"companyName", req.CompanyName},
		{"jobDescription", req.JobDescription},
	} {
		if err := requireField(f.name, f.value); err != nil {
			return nil, err
		}
	}

	profile, err := s.profileOrEmpty(ctx, owner)
	if err != nil {
		return nil, err
	}
	resume, err := s.resumeOrPlaceholder(ctx, owner)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Render(ai.TemplateCoverLetter, map[string]string{
		"jobTitle":       req.JobTitle,
		"companyName":    req.CompanyName,
		"name":           orDefault(profile.Name, "the candidate"),
		"industry":       orDefault(profile.Industry, "not specified"),
		"skills":         orDefault(strings.Join(profile.Skills, ", "), "not specified"),
		"resume":         resume,
		"jobDescription": req.JobDescription,
	})
	content, err := structured.GenerateText(ctx, s.generator(config.OpCoverLetter), prompt)
	if err != nil {
		return nil, err
	}

	row := &storage.CoverLetter{
		OwnerID:        owner,
		JobTitle:       strings.TrimSpace(req.JobTitle),
		CompanyName:    strings.TrimSpace(req.CompanyName),
		JobDescription: req.JobDescription,
		Content:        content,
		Status:         CoverLetterStatusCompleted,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.coverLetters.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("Cover letter generated",
		"owner", owner,
		"id", row.ID.String(),
		"company", row.CompanyName)

	letter := coverLetterFromRow(*row)
	return &letter, nil
}

// ListCoverLetters returns the owner's letters newest first.
func (s *Service) ListCoverLetters(ctx context.Context, owner string) ([]types.CoverLetter, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.coverLetters.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]types.CoverLetter, len(rows))
	for i, row := range rows {
		out[i] = coverLetterFromRow(row)
	}
	return out, nil
}

func (s *Service) GetCoverLetter(ctx context.Context, owner, id string) (*types.CoverLetter, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	letterID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.coverLetters.Get(ctx, owner, letterID)
	if err != nil {
		return nil, notFound(err, "cover letter")
	}
	letter := coverLetterFromRow(*row)
	return &letter, nil
}

func (s *Service) DeleteCoverLetter(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	letterID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.coverLetters.Delete(ctx, owner, letterID); err != nil {
		return notFound(err, "cover letter")
	}
	return nil
}

// parseID treats a malformed ID as not found; it cannot name a stored row.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFoundError(apperrors.ErrCodeNotFound, "cover letter not found", err).
			WithContext("id", id)
	}
	return parsed, nil
}

func coverLetterFromRow(row storage.CoverLetter) types.CoverLetter {
	return types.CoverLetter{
		ID:             row.ID.String(),
		JobTitle:       row.JobTitle,
		CompanyName:    row.CompanyName,
		JobDescription: row.JobDescription,
		Content:        row.Content,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
	}
}
