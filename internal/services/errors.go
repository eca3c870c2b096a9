package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResourceMissing marks a required source archive or metadata file
	// that is absent before any work starts.
	ErrResourceMissing = errors.New("resource missing")
	// ErrArchiveRead marks a top-level container that cannot be opened or
	// enumerated.
	ErrArchiveRead = errors.New("archive read error")
	// ErrParse marks a label-dictionary construction failure.
	ErrParse = errors.New("parse error")
	// ErrLabelNotFound marks a member whose derived key has no entry in the
	// label dictionary. Isolated to one work item.
	ErrLabelNotFound = errors.New("label not found")
	// ErrDecode marks image bytes that cannot be decoded. Isolated to one
	// file within a work item.
	ErrDecode = errors.New("decode error")
	// ErrIO marks an output-path write failure.
	ErrIO = errors.New("io error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error must abort the whole run rather than being
// recorded against a single work item or file.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrResourceMissing), errors.Is(err, ErrArchiveRead), errors.Is(err, ErrParse):
		return true
	default:
		return false
	}
}

// Kind returns the short classification name for a tagged error, used when
// recording failures in the run catalog.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrResourceMissing):
		return "resource_missing"
	case errors.Is(err, ErrArchiveRead):
		return "archive_read"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrLabelNotFound):
		return "label_not_found"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
