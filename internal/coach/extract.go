package coach

import (
	"fmt"
	"strings"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/extract"
	"github.com/Tanishka82/nexa-app/internal/schema"
	"github.com/Tanishka82/nexa-app/internal/structured"
	"github.com/Tanishka82/nexa-app/internal/types"
)

// Extract runs extract-and-validate on text the caller already has. The
// shape defaults to the schema's own.
func Extract(req types.ExtractRequest) (*types.ExtractResponse, error) {
	if err := requireField("text", req.Text); err != nil {
		return nil, err
	}
	s, ok := schema.Lookup(req.Schema)
	if !ok {
		return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown schema %q, expected one of: %s", req.Schema, strings.Join(schema.Names(), ", ")), nil).
			WithContext("field", "schema")
	}

	var shape extract.Shape
	if req.Shape != "" {
		parsed, err := extract.ParseShape(req.Shape)
		if err != nil {
			return nil, err
		}
		shape = parsed
	}

	res, err := structured.ExtractAndValidate(req.Text, shape, s)
	if err != nil {
		return nil, err
	}
	return &types.ExtractResponse{
		Value:            res.Value,
		Degenerate:       res.Degenerate,
		DegenerateFields: res.DegenerateFields,
	}, nil
}
