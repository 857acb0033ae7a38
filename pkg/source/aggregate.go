package source

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/de-tools/report-export/pkg/models/domain"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindFullData Kind = "full_data"
	KindSummary  Kind = "summary"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindSummary:
		return KindSummary, nil
	case KindFullData, "full":
		return KindFullData, nil
	}
	return "", fmt.Errorf("%w: unknown report type %q", domain.ErrInvalidConfiguration, s)
}

type Options struct {
	Kind        Kind
	Totals      bool
	GeneratedAt time.Time
}

// Build turns a dataset into a sealed report of the requested kind.
func Build(ds *Dataset, opts Options) (*domain.TabularReport, error) {
	if len(ds.Headers) == 0 {
		return nil, fmt.Errorf("%w: dataset has no columns", ErrEmptyInput)
	}

	switch opts.Kind {
	case KindFullData:
		return fullData(ds, opts)
	case KindSummary, "":
		return summary(ds, opts)
	}
	return nil, fmt.Errorf("%w: unknown report type %q", domain.ErrInvalidConfiguration, opts.Kind)
}

// BaseName is the download name of a report built from the named source.
func BaseName(name string, kind Kind) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = domain.DefaultBaseName
	}
	if kind == KindFullData {
		return stem + "_full_data"
	}
	return stem + "_summary_report"
}

func fullData(ds *Dataset, opts Options) (*domain.TabularReport, error) {
	columns := InferColumns(ds)
	b, err := domain.NewBuilder(domain.Metadata{
		Title:       "Full Data Report: " + ds.Name,
		Subtitle:    fmt.Sprintf("Total Records: %d", len(ds.Records)),
		GeneratedAt: opts.GeneratedAt,
	}, columns...)
	if err != nil {
		return nil, err
	}

	cells := make([]any, len(columns))
	for n, rec := range ds.Records {
		for i, col := range columns {
			var v any
			if i < len(rec) {
				v = rec[i]
			}
			if cells[i], err = Convert(col, v); err != nil {
				return nil, fmt.Errorf("record %d, column %q: %w", n+1, col.Name, err)
			}
		}
		if err := b.AddRow(cells...); err != nil {
			return nil, err
		}
	}

	if opts.Totals {
		if err := addTotals(b, columns, ds); err != nil {
			return nil, err
		}
	}
	return b.Seal()
}

// addTotals sums the numeric columns. The label goes into the empty first
// cell, or into the first text column when the first column is summed.
func addTotals(b *domain.Builder, columns []domain.Column, ds *Dataset) error {
	cells := make([]any, len(columns))
	labelled := !columns[0].Type.Numeric()

	for i, col := range columns {
		switch col.Type {
		case domain.ColumnInteger:
			var sum int64
			for _, rec := range ds.Records {
				if v, _ := Convert(col, cellAt(rec, i)); v != nil {
					sum += v.(int64)
				}
			}
			cells[i] = sum
		case domain.ColumnDecimal, domain.ColumnCurrency:
			sum := decimal.Zero
			for _, rec := range ds.Records {
				if v, _ := Convert(col, cellAt(rec, i)); v != nil {
					sum = sum.Add(toDecimal(v))
				}
			}
			cells[i] = sum
		case domain.ColumnText:
			if !labelled {
				cells[i] = "Total"
				labelled = true
			}
		}
	}
	return b.AddAggregate("Total", cells...)
}

func cellAt(rec []any, i int) any {
	if i < len(rec) {
		return rec[i]
	}
	return nil
}

func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case int64:
		return decimal.NewFromInt(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case float64:
		return decimal.NewFromFloat(x)
	}
	return decimal.Zero
}

var statistics = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// summary produces descriptive statistics of every numeric column.
func summary(ds *Dataset, opts Options) (*domain.TabularReport, error) {
	inferred := InferColumns(ds)

	columns := []domain.Column{{Name: "statistic", Type: domain.ColumnText}}
	var numeric []int
	for i, col := range inferred {
		if col.Type == domain.ColumnInteger || col.Type == domain.ColumnDecimal {
			numeric = append(numeric, i)
			name := col.Name
			if name == "statistic" {
				name = "statistic_value"
			}
			columns = append(columns, domain.Column{Name: name, Type: domain.ColumnDecimal, Hint: domain.FormatHint{Places: domain.Places(2)}})
		}
	}

	subtitle := fmt.Sprintf("Total Records: %d", len(ds.Records))
	if len(numeric) == 0 {
		subtitle += ". No numeric columns found."
	}

	b, err := domain.NewBuilder(domain.Metadata{
		Title:       "Data Analysis Report: " + ds.Name,
		Subtitle:    subtitle,
		GeneratedAt: opts.GeneratedAt,
	}, columns...)
	if err != nil {
		return nil, err
	}
	if len(numeric) == 0 {
		return b.Seal()
	}

	stats := make([][]any, len(numeric))
	for j, i := range numeric {
		var values []float64
		for _, rec := range ds.Records {
			v, err := Convert(inferred[i], cellAt(rec, i))
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", inferred[i].Name, err)
			}
			if v != nil {
				values = append(values, toDecimal(v).InexactFloat64())
			}
		}
		if stats[j], err = describe(values); err != nil {
			return nil, fmt.Errorf("column %q: %w", inferred[i].Name, err)
		}
	}

	for s, name := range statistics {
		cells := []any{name}
		for j := range numeric {
			cells = append(cells, stats[j][s])
		}
		if err := b.AddRow(cells...); err != nil {
			return nil, err
		}
	}
	return b.Seal()
}

// describe returns count, mean, sample std, min, quartiles and max.
// Undefined statistics are nil. Values or results outside the float64 range
// are rejected.
func describe(values []float64) ([]any, error) {
	out := make([]any, len(statistics))
	n := len(values)
	out[0] = decimal.NewFromInt(int64(n))
	if n == 0 {
		return out, nil
	}

	var err error
	stat := func(f float64) any {
		if !finite(f) {
			if err == nil {
				err = fmt.Errorf("%w: statistics out of numeric range", ErrInvalidInput)
			}
			return nil
		}
		return decimal.NewFromFloat(f)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)
	out[1] = stat(mean)

	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		out[2] = stat(math.Sqrt(sq / float64(n-1)))
	}

	out[3] = stat(sorted[0])
	out[4] = stat(percentile(sorted, 0.25))
	out[5] = stat(percentile(sorted, 0.5))
	out[6] = stat(percentile(sorted, 0.75))
	out[7] = stat(sorted[n-1])
	if err != nil {
		return nil, err
	}
	return out, nil
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*(pos-lo)
}
