package common

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Tanishka82/nexa-app/internal/errors"
	"github.com/Tanishka82/nexa-app/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a new file processor. maxSize <= 0 disables the
// size check.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile reads a file as text. PDF files are converted to plain text.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	// The file may have grown since ValidateInputFile
	var reader io.Reader = file
	if fp.maxSize > 0 {
		reader = io.LimitReader(file, fp.maxSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxSize > 0 && int64(len(content)) > fp.maxSize {
		return "", errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("File %s exceeds the %s limit", filename, utils.FormatFileSize(fp.maxSize)), nil)
	}

	kind := utils.DetectKind(filename, content)
	if kind == utils.KindPDF {
		return fp.extractPDF(filename, content)
	}
	if !utils.LooksLikeText(content) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("File %s looks binary, expected text or PDF", filename), nil).
			WithContext("kind", kind.String())
	}
	return string(content), nil
}

func (fp *FileProcessor) extractPDF(filename string, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot open PDF: %s", filename), err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot extract text from PDF: %s", filename), err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read PDF text: %s", filename), err)
	}

	fp.logger.Debug("Extracted PDF text", "filename", filename, "pages", r.NumPage(), "chars", len(text))
	return strings.Join(strings.Fields(string(text)), " "), nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
			code := "INVALID_INPUT_FILE"
			if stderrors.Is(err, utils.ErrFileTooLarge) {
				code = "FILE_TOO_LARGE"
			}
			return nil, errors.NewValidationError(code,
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if utils.DetectKind(filename, nil) == utils.KindUnknown {
			fp.logger.Warn("Unrecognized file extension, reading as text", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
