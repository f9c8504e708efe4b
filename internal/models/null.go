package models

import (
	"database/sql/driver"
	"math"
)

// NullFloat is a float64 that may be missing.
// Indicator warm-up windows and fundamentals that were never reported are
// carried as NullFloat with Valid=false, never as zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a valid NullFloat. NaN and infinities are treated as missing.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// Null returns a missing value.
func Null() NullFloat {
	return NullFloat{}
}

// Missing reports whether the value is absent.
func (n NullFloat) Missing() bool {
	return !n.Valid
}

// Or returns the value, or fallback when missing.
func (n NullFloat) Or(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Float64
}

// Less reports whether the value is present and strictly below limit.
// A missing value never satisfies a comparison.
func (n NullFloat) Less(limit float64) bool {
	return n.Valid && n.Float64 < limit
}

// Greater reports whether the value is present and strictly above limit.
func (n NullFloat) Greater(limit float64) bool {
	return n.Valid && n.Float64 > limit
}

// Value implements driver.Valuer so missing values map to SQL NULL.
func (n NullFloat) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// NullInt is an int that may be missing. Used for cluster ids of tickers
// that could not be profiled.
type NullInt struct {
	Int   int
	Valid bool
}

// Int returns a valid NullInt.
func Int(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

// Value implements driver.Valuer.
func (n NullInt) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return int64(n.Int), nil
}
