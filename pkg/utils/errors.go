package utils

import (
	"context"
	"errors"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrInvalidLevel     = errors.New("section level out of supported range") // Wraps the offending level/section
	ErrMalformedTree    = errors.New("malformed section tree")               // Missing ids, names, or broken parent links
	ErrParsing          = errors.New("parsing error")                        // Wraps markdown/HTML/JSON parsing errors
	ErrRendering        = errors.New("content rendering error")
	ErrDatabase         = errors.New("database error") // Wraps badger errors
	ErrIndexing         = errors.New("search index error")
	ErrFilesystem       = errors.New("filesystem error") // Wraps os errors
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging
// and document status entries.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	// Check against sentinel errors first
	switch {
	case errors.Is(err, ErrInvalidLevel):
		return "Flatten_InvalidLevel"
	case errors.Is(err, ErrMalformedTree):
		return "Flatten_MalformedTree"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "markdown") || strings.Contains(errMsg, "Markdown") {
			return "Content_ParsingMarkdown"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrRendering):
		return "Content_Rendering"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrIndexing):
		return "Index_Other"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	return "Unknown"
}
