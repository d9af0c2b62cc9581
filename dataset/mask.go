package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// MaskConfig names the columns a mask must never keep. DropPrefixes holds
// the aggregate-column prefixes excluded by configuration rather than by
// variance.
type MaskConfig struct {
	Label        string
	Identifiers  []string
	DropPrefixes []string
}

// Mask is a feature selection computed once from the training partition and
// applied unchanged to every other partition. It carries the training-set
// column means used to impute any cell still missing after selection.
type Mask struct {
	Keep  []string  `json:"keep"`
	Means []float64 `json:"means"`
}

// BuildMask selects feature columns from the training partition: identifier
// columns, the label, configured prefixes, and columns with undefined or
// zero variance are excluded.
func BuildMask(train *Frame, cfg MaskConfig) (*Mask, error) {
	if train.NumRows() == 0 {
		return nil, errors.New("empty training partition")
	}
	if cfg.Label == "" {
		return nil, errors.New("label column not configured")
	}

	excluded := make(map[string]bool, len(cfg.Identifiers)+1)
	excluded[cfg.Label] = true
	for _, name := range cfg.Identifiers {
		excluded[name] = true
	}

	mask := &Mask{}
	for _, name := range train.Columns {
		if excluded[name] || hasAnyPrefix(name, cfg.DropPrefixes) {
			continue
		}
		values, err := train.Float(name)
		if err != nil {
			return nil, err
		}
		mean, variance, count := summarize(values)
		if count == 0 || variance == 0 {
			continue
		}
		mask.Keep = append(mask.Keep, name)
		mask.Means = append(mask.Means, mean)
	}
	if len(mask.Keep) == 0 {
		return nil, errors.New("no usable feature columns")
	}
	return mask, nil
}

// Apply checks that every kept column exists in the frame. The frame may
// carry extra columns (the quiz set has no label) without affecting the
// selection.
func (m *Mask) Apply(f *Frame) error {
	for _, name := range m.Keep {
		if _, ok := f.ColumnIndex(name); !ok {
			return fmt.Errorf("column %q not found", name)
		}
	}
	return nil
}

// Matrix extracts the kept columns as a numeric matrix. Cells that are
// still missing are imputed with the training-set column mean.
func (m *Mask) Matrix(f *Frame) ([][]float64, error) {
	if err := m.Apply(f); err != nil {
		return nil, err
	}
	positions := make([]int, len(m.Keep))
	for i, name := range m.Keep {
		positions[i], _ = f.ColumnIndex(name)
	}

	matrix := make([][]float64, f.NumRows())
	for r, row := range f.Rows {
		vector := make([]float64, len(positions))
		for c, pos := range positions {
			value := ParseCell(row[pos])
			if math.IsNaN(value) {
				value = m.Means[c]
			}
			vector[c] = value
		}
		matrix[r] = vector
	}
	return matrix, nil
}

func (m *Mask) Save(path string) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func LoadMask(path string) (*Mask, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mask Mask
	if err := json.Unmarshal(payload, &mask); err != nil {
		return nil, err
	}
	if len(mask.Keep) == 0 || len(mask.Keep) != len(mask.Means) {
		return nil, errors.New("malformed mask file")
	}
	return &mask, nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// summarize computes mean and variance over the finite values of a column.
// count is the number of finite values seen.
func summarize(values []float64) (mean, variance float64, count int) {
	sum, sumSq := 0.0, 0.0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		sumSq += v * v
		count++
	}
	if count == 0 {
		return 0, 0, 0
	}
	n := float64(count)
	mean = sum / n
	variance = (sumSq / n) - (mean * mean)
	if variance < 0 {
		variance = 0
	}
	return mean, variance, count
}
