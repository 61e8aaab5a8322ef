package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// InputKind classifies an input document by how its text is obtained
type InputKind int

const (
	KindUnknown InputKind = iota
	KindText
	KindPDF
)

func (k InputKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// ErrFileTooLarge is wrapped by ValidateInputFile when a file exceeds the limit
var ErrFileTooLarge = errors.New("file too large")

var (
	textExtensions = map[string]bool{
		".txt": true, ".text": true, ".md": true, ".markdown": true, ".json": true,
	}
	pdfMagic = []byte("%PDF-")
)

// sniffLen is how much of a file LooksLikeText inspects
const sniffLen = 8 << 10

// ValidateInputFile checks if a file exists, is readable and fits in maxSize
// bytes. A maxSize <= 0 disables the size check.
func ValidateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}
		return fmt.Errorf("cannot access file %s: %w", filename, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", filename)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("%s is %s, limit is %s: %w",
			filename, FormatFileSize(info.Size()), FormatFileSize(maxSize), ErrFileTooLarge)
	}

	// Stat succeeds on files we cannot open
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", filename, err)
	}

	return nil
}

// ValidateOutputFile checks if the output file path is valid, creating the
// parent directory when needed
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", filename)
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		// Check if directory exists or can be created
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// DetectKind classifies a file. The PDF header wins over the extension so a
// résumé saved as .txt by a browser still goes through PDF extraction. head
// may be nil, in which case only the extension is used.
func DetectKind(filename string, head []byte) InputKind {
	if bytes.HasPrefix(head, pdfMagic) {
		return KindPDF
	}

	ext := GetFileExtension(filename)
	switch {
	case ext == ".pdf":
		return KindPDF
	case textExtensions[ext]:
		return KindText
	default:
		return KindUnknown
	}
}

// LooksLikeText reports whether content is plausibly text: valid UTF-8 with
// no NUL bytes in its first few kilobytes.
func LooksLikeText(content []byte) bool {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
		// Don't reject a rune split by the cut
		for i := 0; i < utf8.UTFMax && len(head) > 0 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	return bytes.IndexByte(head, 0) < 0 && utf8.Valid(head)
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
