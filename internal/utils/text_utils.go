package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// tag-like spans; an unterminated '<' swallows the rest of the input
	htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)
	// links run until the next whitespace rune, as isSpace defines it
	urlPattern = regexp.MustCompile(`(?:https?://|www\.)[^\s\v\p{Z}\x{feff}]+`)
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// Normalize lowercases text and strips HTML tags, links, digits and
// punctuation, leaving lowercase ASCII words separated by single spaces.
// Normalize is idempotent.
func (tp *TextProcessor) Normalize(text string) string {
	// Casers carry state, so each call gets its own
	cleaned := cases.Lower(language.Und).String(text)
	cleaned = htmlTagPattern.ReplaceAllString(cleaned, "")
	cleaned = urlPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Map(keepLetterOrSpace, cleaned)
	return strings.Join(strings.FieldsFunc(cleaned, isSpace), " ")
}

func keepLetterOrSpace(r rune) rune {
	if (r >= 'a' && r <= 'z') || isSpace(r) {
		return r
	}
	return -1
}

// isSpace is the whitespace class of browser regular expressions: the
// Unicode spaces plus the byte order mark, without NEL (U+0085).
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return r == '\ufeff' || unicode.IsSpace(r)
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop a split multi-byte sequence at the cut
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}
