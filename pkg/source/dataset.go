package source

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyInput      = errors.New("empty input")
	ErrInvalidInput    = errors.New("invalid input")
)

// Dataset is raw tabular input before column types are known. Cells are
// strings for file sources and driver values for SQL sources.
type Dataset struct {
	Name    string
	Headers []string
	Records [][]any
}

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9_]`)
	repeatedUnder    = regexp.MustCompile(`_+`)
)

// SanitizeNames normalizes headers to lower_snake_case identifiers and
// makes them unique.
func SanitizeNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		name = invalidNameChars.ReplaceAllString(name, "_")
		name = repeatedUnder.ReplaceAllString(name, "_")
		if name == "" || name == "_" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

var dateTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

const dateTimePattern = "2006-01-02 15:04:05"

type cellKind int

const (
	kindEmpty cellKind = iota
	kindInteger
	kindDecimal
	kindDate
	kindDateTime
	kindText
)

func classify(v any) cellKind {
	switch x := v.(type) {
	case nil:
		return kindEmpty
	case int, int32, int64:
		return kindInteger
	case float32, float64, decimal.Decimal:
		return kindDecimal
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return kindDate
		}
		return kindDateTime
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return kindEmpty
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return kindInteger
		}
		if _, err := decimal.NewFromString(s); err == nil {
			return kindDecimal
		}
		if _, err := time.Parse(domain.DefaultDatePattern, s); err == nil {
			return kindDate
		}
		if _, ok := parseDateTime(s); ok {
			return kindDateTime
		}
	}
	return kindText
}

func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// InferColumns derives a typed column per header from the dataset values.
// A column is integer when every non-empty value is, decimal when every value
// is numeric, date when every value is a date, and text otherwise.
func InferColumns(ds *Dataset) []domain.Column {
	names := SanitizeNames(ds.Headers)
	columns := make([]domain.Column, len(names))

	for i, name := range names {
		kind := kindEmpty
		places := int32(0)

		for _, rec := range ds.Records {
			var v any
			if i < len(rec) {
				v = rec[i]
			}
			k := classify(v)
			if k == kindEmpty {
				continue
			}
			kind = merge(kind, k)
			if k == kindDecimal {
				places = max(places, fractionDigits(v))
			}
		}

		col := domain.Column{Name: name, Type: domain.ColumnText}
		switch kind {
		case kindInteger:
			col.Type = domain.ColumnInteger
		case kindDecimal:
			col.Type = domain.ColumnDecimal
			col.Hint.Places = domain.Places(min(max(places, domain.DefaultPlaces), 6))
		case kindDate:
			col.Type = domain.ColumnDate
		case kindDateTime:
			col.Type = domain.ColumnDate
			col.Hint.DatePattern = dateTimePattern
		}
		columns[i] = col
	}
	return columns
}

func merge(a, b cellKind) cellKind {
	switch {
	case a == kindEmpty:
		return b
	case a == b:
		return a
	case isNumber(a) && isNumber(b):
		return kindDecimal
	case isDate(a) && isDate(b):
		return kindDateTime
	}
	return kindText
}

func isNumber(k cellKind) bool { return k == kindInteger || k == kindDecimal }
func isDate(k cellKind) bool   { return k == kindDate || k == kindDateTime }

func fractionDigits(v any) int32 {
	var d decimal.Decimal
	switch x := v.(type) {
	case string:
		d, _ = decimal.NewFromString(strings.TrimSpace(x))
	case decimal.Decimal:
		d = x
	case float64:
		if !finite(x) {
			return 0
		}
		d = decimal.NewFromFloat(x)
	case float32:
		if !finite(float64(x)) {
			return 0
		}
		d = decimal.NewFromFloat32(x)
	}
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Convert turns a raw value into the canonical input for a column type.
func Convert(col domain.Column, v any) (any, error) {
	if s, ok := v.(string); ok && col.Type != domain.ColumnText {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		switch col.Type {
		case domain.ColumnInteger:
			return strconv.ParseInt(s, 10, 64)
		case domain.ColumnDecimal, domain.ColumnCurrency:
			return decimal.NewFromString(s)
		case domain.ColumnDate:
			if ts, err := time.Parse(domain.DefaultDatePattern, s); err == nil {
				return ts, nil
			}
			if ts, ok := parseDateTime(s); ok {
				return ts, nil
			}
			return nil, fmt.Errorf("%w: %q is not a date", ErrInvalidInput, s)
		}
	}

	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return Convert(col, string(x))
	case int:
		return Convert(col, int64(x))
	case int32:
		return Convert(col, int64(x))
	case int64:
		if col.Type == domain.ColumnText {
			return strconv.FormatInt(x, 10), nil
		}
	case float32:
		return Convert(col, float64(x))
	case float64:
		if col.Type == domain.ColumnText {
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		}
		if !finite(x) {
			return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidInput, x)
		}
	case decimal.Decimal:
		if col.Type == domain.ColumnText {
			return x.String(), nil
		}
	case time.Time:
		if col.Type == domain.ColumnText {
			return x.Format(time.RFC3339), nil
		}
	case bool:
		return Convert(col, strconv.FormatBool(x))
	case string:
		return x, nil
	}
	return v, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
