package common

import (
	"fmt"
	"slices"

	"github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats. An empty
// configuration falls back to every format the formatter registry can render.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := GetSupportedFormats(supportedFormats)
	if slices.Contains(allowed, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, allowed), nil)
}

// GetSupportedFormats returns the configured formats the registry can render,
// preserving configuration order.
func GetSupportedFormats(supportedFormats []string) []string {
	renderable := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return renderable
	}
	formats := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		if slices.Contains(renderable, f) {
			formats = append(formats, f)
		}
	}
	return formats
}
