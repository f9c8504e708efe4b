// Package market loads the ticker universe and downloads price and macro series.
package market

import (
	"fmt"
	"unicode/utf8"

	"github.com/ternarybob/condor/internal/csvio"
	"github.com/ternarybob/condor/internal/models"
)

// LoadRoster reads the ticker universe from a roster file.
// column names the ticker column; "ticker" is accepted when it is absent.
func LoadRoster(path, column, separator string) (models.Roster, error) {
	if utf8.RuneCountInString(separator) != 1 {
		return models.Roster{}, &models.ConfigurationError{
			Field:   "market.roster_separator",
			Value:   separator,
			Message: "must be a single character",
		}
	}
	sep, _ := utf8.DecodeRuneInString(separator)

	roster, err := csvio.ReadRoster(path, csvio.Dialect{Separator: sep, Decimal: "."}, column)
	if err != nil {
		return models.Roster{}, fmt.Errorf("failed to load roster: %w", err)
	}
	if len(roster.Entries) == 0 {
		return models.Roster{}, &models.InsufficientDataError{Stage: "roster", Message: fmt.Sprintf("%s lists no tickers", path)}
	}
	return roster, nil
}
