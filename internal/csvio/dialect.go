// Package csvio reads and writes the pipeline's CSV artifacts.
// Files use a configurable field separator and decimal mark (";" and "," by default).
package csvio

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/condor/internal/models"
)

// Dialect is the field separator and decimal mark of a file.
type Dialect struct {
	Separator rune
	Decimal   string
}

// DefaultDialect is ";" separated with "," decimals.
func DefaultDialect() Dialect {
	return Dialect{Separator: ';', Decimal: ","}
}

// NewDialect builds a dialect from config strings.
func NewDialect(separator, decimalMark string) (Dialect, error) {
	if utf8.RuneCountInString(separator) != 1 {
		return Dialect{}, fmt.Errorf("separator must be a single character, got %q", separator)
	}
	if decimalMark != "." && decimalMark != "," {
		return Dialect{}, fmt.Errorf("decimal mark must be \".\" or \",\", got %q", decimalMark)
	}
	sep, _ := utf8.DecodeRuneInString(separator)
	if string(sep) == decimalMark {
		return Dialect{}, fmt.Errorf("separator and decimal mark must differ")
	}
	return Dialect{Separator: sep, Decimal: decimalMark}, nil
}

// FormatFloat renders v with the shortest exact decimal representation.
func (d Dialect) FormatFloat(v float64) string {
	s := decimal.NewFromFloat(v).String()
	if d.Decimal != "." {
		s = strings.Replace(s, ".", d.Decimal, 1)
	}
	return s
}

// FormatNull renders a nullable value, missing values become an empty cell.
func (d Dialect) FormatNull(v models.NullFloat) string {
	if !v.Valid {
		return ""
	}
	return d.FormatFloat(v.Float64)
}

// ParseFloat parses a cell. Empty cells and NaN markers are missing.
// Both decimal marks are accepted so hand-edited files still load.
func (d Dialect) ParseFloat(s string) (models.NullFloat, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "-":
		return models.Null(), nil
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return models.Null(), fmt.Errorf("invalid number %q: %w", s, err)
	}
	f, _ := v.Float64()
	return models.Float(f), nil
}
