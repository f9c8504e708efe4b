package indicators

import (
	"github.com/markcheno/go-talib"

	"github.com/ternarybob/condor/internal/models"
)

type ichimokuLines struct {
	tenkan []models.NullFloat
	kijun  []models.NullFloat
	spanA  []models.NullFloat
	spanB  []models.NullFloat
}

// computeIchimoku builds the cloud lines. Both spans are projected kijun periods
// forward, so span values at row i come from row i-kijun.
func computeIchimoku(high, low []float64, tenkanPeriod, kijunPeriod, senkouPeriod int) ichimokuLines {
	n := len(high)
	lines := ichimokuLines{
		tenkan: make([]models.NullFloat, n),
		kijun:  make([]models.NullFloat, n),
		spanA:  make([]models.NullFloat, n),
		spanB:  make([]models.NullFloat, n),
	}

	tenkan := guard(n, tenkanPeriod-1, func() []float64 { return talib.MidPrice(high, low, tenkanPeriod) })
	kijun := guard(n, kijunPeriod-1, func() []float64 { return talib.MidPrice(high, low, kijunPeriod) })
	senkou := guard(n, senkouPeriod-1, func() []float64 { return talib.MidPrice(high, low, senkouPeriod) })

	at := func(values []float64, lookback, i int) models.NullFloat {
		if values == nil || i < lookback || i >= len(values) {
			return models.Null()
		}
		return models.Float(values[i])
	}

	for i := 0; i < n; i++ {
		lines.tenkan[i] = at(tenkan, tenkanPeriod-1, i)
		lines.kijun[i] = at(kijun, kijunPeriod-1, i)

		src := i - kijunPeriod
		if src < 0 {
			continue
		}
		t := at(tenkan, tenkanPeriod-1, src)
		k := at(kijun, kijunPeriod-1, src)
		if t.Valid && k.Valid {
			lines.spanA[i] = models.Float((t.Float64 + k.Float64) / 2)
		}
		lines.spanB[i] = at(senkou, senkouPeriod-1, src)
	}

	return lines
}
