package models

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a parameter that is invalid for the data it is applied to,
// such as a cluster count larger than the number of profilable tickers.
type ConfigurationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%v: %s", e.Field, e.Value, e.Message)
}

// InsufficientDataError reports that no input survived the filtering a computation needs.
type InsufficientDataError struct {
	Stage   string
	Message string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Stage, e.Message)
}

// SchemaError reports a table that does not satisfy its declared column contract.
type SchemaError struct {
	Table   string
	Version int
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table %s (v%d) is missing required columns: %s",
		e.Table, e.Version, strings.Join(e.Missing, ", "))
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsInsufficientDataError reports whether err wraps an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var target *SchemaError
	return errors.As(err, &target)
}
