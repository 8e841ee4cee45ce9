// Package extract turns stored learning documents into plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// ErrExtractionFailed marks an unreadable or corrupt document. Callers must
// not feed the content any further down the pipeline.
var ErrExtractionFailed = errors.New("extraction failed")

// defaultMaxRunes caps the extracted text so it fits the completion model input.
const defaultMaxRunes = 4000

// Extractor extracts plain text from stored documents page by page.
// Pages are joined by a blank line, words within a page by single spaces.
type Extractor struct {
	maxRunes int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxRunes overrides the extracted-text cap.
func WithMaxRunes(n int) Option {
	return func(e *Extractor) {
		e.maxRunes = n
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxRunes: defaultMaxRunes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the document at path and returns its concatenated plain text.
func (e *Extractor) Extract(path string) (string, error) {
	var pages []string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		pages, err = workbookPages(path)
	default:
		pages, err = plainTextPages(path)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text := norm.NFC.String(strings.Join(pages, "\n\n"))
	return truncateRunes(text, e.maxRunes), nil
}

// Signature returns a hex BLAKE2b-256 digest of the file at path.
func Signature(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file for signature: %w", err)
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// workbookPages extracts one page per sheet, cells joined in row order.
func workbookPages(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var pages []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var words []string
		for _, row := range rows {
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					words = append(words, strings.Fields(cell)...)
				}
			}
		}
		if len(words) > 0 {
			pages = append(pages, strings.Join(words, " "))
		}
	}
	return pages, nil
}

// plainTextPages treats paragraphs separated by blank lines as pages.
func plainTextPages(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file is not valid UTF-8 text")
	}

	var pages []string
	for _, block := range strings.Split(string(data), "\n\n") {
		words := strings.Fields(block)
		if len(words) > 0 {
			pages = append(pages, strings.Join(words, " "))
		}
	}
	return pages, nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
