package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CellText renders a canonical cell value as text according to the column's
// type and format hint. Every exporter renders values through it so that one
// dataset reads the same in each output format.
func CellText(col Column, v any) string {
	if v == nil {
		return ""
	}

	switch col.Type {
	case ColumnInteger:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
	case ColumnDecimal:
		if d, ok := v.(decimal.Decimal); ok {
			return d.StringFixed(col.Hint.DecimalPlaces())
		}
	case ColumnCurrency:
		if d, ok := v.(decimal.Decimal); ok {
			s := d.StringFixed(col.Hint.DecimalPlaces())
			if col.Hint.CurrencySymbol == "" {
				return s
			}
			if strings.HasPrefix(s, "-") {
				return "-" + col.Hint.CurrencySymbol + s[1:]
			}
			return col.Hint.CurrencySymbol + s
		}
	case ColumnDate:
		if ts, ok := v.(time.Time); ok {
			return ts.Format(col.Hint.Layout())
		}
	case ColumnText:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Rounded returns a decimal cell rounded the way CellText prints it.
func Rounded(col Column, d decimal.Decimal) decimal.Decimal {
	return d.Round(col.Hint.DecimalPlaces())
}
