package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnsupportedPaperSize = errors.New("unsupported paper size")
	ErrMalformedReport      = errors.New("malformed report")
	ErrExport               = errors.New("export failed")
)

// ExportError reports an encoding or layout failure inside one exporter.
type ExportError struct {
	Format Format
	Err    error
}

func NewExportError(format Format, err error) *ExportError {
	return &ExportError{Format: format, Err: err}
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func (e *ExportError) Is(target error) bool {
	return target == ErrExport
}
