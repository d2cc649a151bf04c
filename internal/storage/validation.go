package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mwhitfield/reqwell/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrEmptyPatch         = errors.New("patch carries no changes")
	ErrInvalidRequirement = errors.New("invalid requirement")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateIDs ensures an id slice is usable.
func validateIDs(ids []string) error {
	if ids == nil {
		return fmt.Errorf("%w: ids", ErrNilParameter)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", ErrEmptySlice)
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: ids[%d]", ErrEmptyString, i)
		}
	}
	return nil
}

// validateRequirement validates a requirement about to be persisted.
func validateRequirement(r *model.Requirement) error {
	if r == nil {
		return fmt.Errorf("%w: requirement", ErrNilParameter)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidRequirement)
	}
	if utf8.RuneCountInString(r.Title) > 255 {
		return fmt.Errorf("%w: title exceeds 255 characters", ErrInvalidRequirement)
	}
	return nil
}

// placeholders builds a "?, ?, ?" fragment for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
