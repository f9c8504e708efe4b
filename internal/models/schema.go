package models

// Schema is the versioned column contract of a persisted table.
// Readers validate a header against it before decoding any row.
type Schema struct {
	Name     string
	Version  int
	Columns  []string
	Required []string
}

// Validate checks that every required column is present in header.
func (s Schema) Validate(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range s.Required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: s.Name, Version: s.Version, Missing: missing}
	}
	return nil
}

// Index maps column names to their position in header.
func Index(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

var PricesSchema = Schema{
	Name:     "prices",
	Version:  1,
	Columns:  []string{"date", "ticker", "open", "high", "low", "close", "adj_close", "volume"},
	Required: []string{"date", "ticker", "open", "high", "low", "close", "volume"},
}

var TechnicalSchema = Schema{
	Name:    "technical",
	Version: 1,
	Columns: []string{
		"date", "ticker", "open", "high", "low", "close", "volume",
		"ema_9", "ema_12", "ema_26",
		"sma_5", "sma_20", "sma_50", "sma_200",
		"rsi_14",
		"macd", "macd_signal", "macd_hist",
		"bb_upper", "bb_middle", "bb_lower",
		"stoch_k", "stoch_d",
		"cci_20", "adx_14", "psar", "atr_14", "obv", "ad",
		"ichimoku_tenkan", "ichimoku_kijun", "ichimoku_span_a", "ichimoku_span_b",
		"volume_sma_20",
	},
	Required: []string{"date", "ticker", "close", "volume", "rsi_14", "adx_14", "atr_14", "sma_200"},
}

var FundamentalSchema = Schema{
	Name:    "fundamentals",
	Version: 1,
	Columns: []string{
		"ticker", "year", "pe_ratio", "pb_ratio", "roe",
		"debt_to_equity", "current_ratio", "dividend_yield", "salud_financiera",
	},
	Required: []string{"ticker", "year"},
}

var ProfileSchema = Schema{
	Name:     "profiles",
	Version:  1,
	Columns:  []string{"ticker", "cluster", "personalidad"},
	Required: []string{"ticker"},
}

var OpportunitySchema = Schema{
	Name:     "opportunities",
	Version:  1,
	Columns:  []string{"date", "ticker", "close", "rsi_14", "salud_financiera", "roe", "rule"},
	Required: []string{"date", "ticker", "close", "rsi_14", "salud_financiera", "roe"},
}

var MacroSchema = Schema{
	Name:     "macro",
	Version:  1,
	Required: []string{"date"},
}

var RosterSchema = Schema{
	Name:     "roster",
	Version:  1,
	Required: []string{"NEMOTECNICO"},
}
