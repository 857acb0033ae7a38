package file

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/de-tools/report-export/pkg/source"
	"github.com/xuri/excelize/v2"
)

const DefaultMaxBytes = 150 << 20

type Limits struct {
	MaxBytes          int64
	AllowedExtensions []string
}

func DefaultLimits() Limits {
	return Limits{
		MaxBytes:          DefaultMaxBytes,
		AllowedExtensions: []string{"csv", "xlsx"},
	}
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Read loads a CSV or XLSX upload into a dataset.
func Read(name string, r io.Reader, limits Limits) (*source.Dataset, error) {
	ext := Extension(name)
	if !slices.Contains(limits.AllowedExtensions, ext) {
		return nil, fmt.Errorf("%w: %q", source.ErrUnsupportedFile, name)
	}

	if limits.MaxBytes > 0 {
		r = io.LimitReader(r, limits.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: max size is %d MB", source.ErrFileTooLarge, limits.MaxBytes>>20)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", source.ErrEmptyInput, name)
	}

	var rows [][]string
	switch ext {
	case "csv":
		rows, err = readCSV(data)
	case "xlsx":
		rows, err = readXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", source.ErrUnsupportedFile, name)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", source.ErrEmptyInput, name)
	}

	ds := &source.Dataset{
		Name:    filepath.Base(name),
		Headers: rows[0],
	}
	for _, row := range rows[1:] {
		rec := make([]any, len(ds.Headers))
		for i := range rec {
			if i < len(row) {
				rec[i] = row[i]
			}
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV file: %v", source.ErrInvalidInput, err)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse Excel file: %v", source.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", source.ErrEmptyInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", source.ErrInvalidInput, sheets[0], err)
	}
	return rows, nil
}
