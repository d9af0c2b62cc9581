package ml

import (
	"errors"
	"math"
)

// Scaler standardizes features to zero mean and unit variance. Stats are
// computed once from the data passed to Fit and reused unchanged for any
// later Transform, so held-out partitions never influence the scaling.
type Scaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

func (s *Scaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features empty")
	}
	width := len(features[0])
	means := make([]float64, width)
	stds := make([]float64, width)

	for c := 0; c < width; c++ {
		sum, sumSq := 0.0, 0.0
		for _, row := range features {
			sum += row[c]
			sumSq += row[c] * row[c]
		}
		n := float64(len(features))
		mean := sum / n
		variance := (sumSq / n) - (mean * mean)
		if variance < 0 {
			variance = 0
		}
		means[c] = mean
		stds[c] = math.Sqrt(variance)
	}

	s.Means = means
	s.Stds = stds
	return nil
}

// TransformRow standardizes a single vector. Zero-variance columns map to 0.
func (s *Scaler) TransformRow(row []float64) ([]float64, error) {
	if len(row) != len(s.Means) {
		return nil, errors.New("vector width does not match fitted scaler")
	}
	out := make([]float64, len(row))
	for i, v := range row {
		if s.Stds[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - s.Means[i]) / s.Stds[i]
	}
	return out, nil
}

func (s *Scaler) Transform(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
