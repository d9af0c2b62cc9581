package ml

import (
	"errors"
	"fmt"
)

// Accuracy is the fraction of matching predictions.
func Accuracy(actual, predicted []int) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	correct := 0
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual))
}

// ConfusionMatrix counts predicted (rows) against actual (columns) classes.
type ConfusionMatrix struct {
	Classes []string
	Counts  [][]int
}

func NewConfusionMatrix(actual, predicted []int, classes []string) (*ConfusionMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, errors.New("actual and predicted size mismatch")
	}
	if len(classes) == 0 {
		return nil, errors.New("no classes")
	}
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := range actual {
		if actual[i] < 0 || actual[i] >= len(classes) {
			return nil, fmt.Errorf("actual label %d out of range", actual[i])
		}
		if predicted[i] < 0 || predicted[i] >= len(classes) {
			return nil, fmt.Errorf("predicted label %d out of range", predicted[i])
		}
		counts[predicted[i]][actual[i]]++
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}, nil
}

// Normalize divides each actual-class column by its total, so every column
// with observations sums to 1.
func (m *ConfusionMatrix) Normalize() [][]float64 {
	k := len(m.Classes)
	normalized := make([][]float64, k)
	for i := range normalized {
		normalized[i] = make([]float64, k)
	}
	for col := 0; col < k; col++ {
		total := 0
		for row := 0; row < k; row++ {
			total += m.Counts[row][col]
		}
		if total == 0 {
			continue
		}
		for row := 0; row < k; row++ {
			normalized[row][col] = float64(m.Counts[row][col]) / float64(total)
		}
	}
	return normalized
}

// PrecisionRecall computes per-class precision and recall from counts.
func (m *ConfusionMatrix) PrecisionRecall() (precision, recall []float64) {
	k := len(m.Classes)
	precision = make([]float64, k)
	recall = make([]float64, k)
	for c := 0; c < k; c++ {
		tp := m.Counts[c][c]
		predicted, actual := 0, 0
		for other := 0; other < k; other++ {
			predicted += m.Counts[c][other]
			actual += m.Counts[other][c]
		}
		if predicted > 0 {
			precision[c] = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			recall[c] = float64(tp) / float64(actual)
		}
	}
	return precision, recall
}
