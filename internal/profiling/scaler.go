package profiling

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardises columns to zero mean and unit population variance.
// A column without variance is centred and left unscaled.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler learns the column statistics of rows.
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	dims := len(rows[0])
	s := Scaler{Mean: make([]float64, dims), Std: make([]float64, dims)}

	column := make([]float64, len(rows))
	for d := 0; d < dims; d++ {
		for i, row := range rows {
			column[i] = row[d]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[d] = mean
		s.Std[d] = std
	}
	return s
}

// Transform returns standardised copies of rows.
func (s Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := make([]float64, len(row))
		for d, v := range row {
			z[d] = (v - s.Mean[d]) / s.Std[d]
		}
		out[i] = z
	}
	return out
}

// Inverse maps standardised rows back to the original scale.
func (s Scaler) Inverse(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		x := make([]float64, len(row))
		for d, v := range row {
			x[d] = v*s.Std[d] + s.Mean[d]
		}
		out[i] = x
	}
	return out
}
