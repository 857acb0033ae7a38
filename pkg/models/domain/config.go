package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Format string

const (
	FormatPDF         Format = "PDF"
	FormatSpreadsheet Format = "SPREADSHEET"
	FormatDelimited   Format = "DELIMITED"
)

// ParseFormat accepts the enum names as well as the short names used by
// forms and flags (pdf, excel, xlsx, csv).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "spreadsheet", "excel", "xlsx":
		return FormatSpreadsheet, nil
	case "delimited", "csv", "tsv":
		return FormatDelimited, nil
	}
	return "", fmt.Errorf("%w: unknown output format %q", ErrInvalidConfiguration, s)
}

type PaperSize string

const (
	PaperA1 PaperSize = "A1"
	PaperA2 PaperSize = "A2"
	PaperA3 PaperSize = "A3"
	PaperA4 PaperSize = "A4"
)

type Orientation string

const (
	Portrait  Orientation = "PORTRAIT"
	Landscape Orientation = "LANDSCAPE"
)

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "portrait", "p":
		return Portrait, nil
	case "landscape", "l":
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: unknown orientation %q", ErrInvalidConfiguration, s)
}

const (
	DefaultDelimiter = ','
	DefaultBaseName  = "report"
)

// ParseDelimiter reads a delimiter flag or form value. Empty selects the
// default; "tab" and a literal backslash-t select a tab.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfiguration, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// RenderConfiguration carries the user-selected output parameters.
// PaperSize and Orientation only matter for PDF, Delimiter only for
// DELIMITED; they are ignored otherwise.
type RenderConfiguration struct {
	Format      Format
	PaperSize   PaperSize
	Orientation Orientation
	Delimiter   rune
	BaseName    string
}

func (c RenderConfiguration) EffectiveDelimiter() rune {
	if c.Delimiter == 0 {
		return DefaultDelimiter
	}
	return c.Delimiter
}

func (c RenderConfiguration) EffectivePaperSize() PaperSize {
	if c.PaperSize == "" {
		return PaperA4
	}
	return PaperSize(strings.ToUpper(string(c.PaperSize)))
}

func (c RenderConfiguration) EffectiveOrientation() Orientation {
	if c.Orientation == "" {
		return Portrait
	}
	return Orientation(strings.ToUpper(string(c.Orientation)))
}

func (c RenderConfiguration) EffectiveBaseName() string {
	if strings.TrimSpace(c.BaseName) == "" {
		return DefaultBaseName
	}
	return c.BaseName
}
