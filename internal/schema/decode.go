package schema

import (
	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/Tanishka82/nexa-app/internal/errors"
)

// Decode copies a normalized value into a typed struct (or slice of structs)
// using the struct's json tags.
func Decode(value any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		ZeroFields:       true,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return apperrors.NewInternalError(apperrors.ErrCodeSchemaDecode, "failed to build decoder", err)
	}
	if err := dec.Decode(value); err != nil {
		return apperrors.NewValidationError(apperrors.ErrCodeSchemaDecode, "normalized value does not fit target type", err)
	}
	return nil
}

// DecodeAs is the generic form of Decode.
func DecodeAs[T any](value any) (T, error) {
	var out T
	err := Decode(value, &out)
	return out, err
}
