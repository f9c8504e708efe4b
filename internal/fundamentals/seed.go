package fundamentals

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/condor/internal/models"
)

// seedFile is the on-disk layout of the curated fundamentals.
type seedFile struct {
	Fundamentals []seedRecord `yaml:"fundamentals"`
}

// seedRecord uses pointers so an omitted ratio stays missing instead of zero.
type seedRecord struct {
	Ticker        string   `yaml:"ticker"`
	Year          int      `yaml:"year"`
	PERatio       *float64 `yaml:"pe_ratio"`
	PBRatio       *float64 `yaml:"pb_ratio"`
	ROE           *float64 `yaml:"roe"`
	DebtToEquity  *float64 `yaml:"debt_to_equity"`
	CurrentRatio  *float64 `yaml:"current_ratio"`
	DividendYield *float64 `yaml:"dividend_yield"`
}

func optional(v *float64) models.NullFloat {
	if v == nil {
		return models.Null()
	}
	return models.Float(*v)
}

// LoadSeed reads curated annual ratios from a YAML file and derives their health.
func LoadSeed(path string) ([]models.FundamentalRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) ([]models.FundamentalRecord, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}

	records := make([]models.FundamentalRecord, 0, len(seed.Fundamentals))
	for i, s := range seed.Fundamentals {
		ticker := strings.ToUpper(strings.TrimSpace(s.Ticker))
		if ticker == "" || s.Year == 0 {
			return nil, fmt.Errorf("seed entry %d: ticker and year are required", i+1)
		}
		records = append(records, Label(models.FundamentalRecord{
			Ticker:        ticker,
			Year:          s.Year,
			PERatio:       optional(s.PERatio),
			PBRatio:       optional(s.PBRatio),
			ROE:           optional(s.ROE),
			DebtToEquity:  optional(s.DebtToEquity),
			CurrentRatio:  optional(s.CurrentRatio),
			DividendYield: optional(s.DividendYield),
		}))
	}
	return records, nil
}
