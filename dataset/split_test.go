package dataset

import (
	"fmt"
	"math"
	"testing"
)

// balancedFrame builds n rows evenly spread over the given classes.
func balancedFrame(t *testing.T, n int, classes []string) *Frame {
	t.Helper()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("%d", i), classes[i%len(classes)]}
	}
	frame, err := NewFrame([]string{"id", "classe"}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return frame
}

func TestSplitPartitionsAreDisjointAndComplete(t *testing.T) {
	frame := balancedFrame(t, 100, []string{"A", "B", "C", "D", "E"})

	parts, err := Split(frame, "classe", 0.8, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parts.Train.NumRows() != 80 {
		t.Fatalf("expected 80 training rows, got %d", parts.Train.NumRows())
	}
	if parts.Validation.NumRows() != 10 || parts.Test.NumRows() != 10 {
		t.Fatalf("expected 10/10 validation/test, got %d/%d",
			parts.Validation.NumRows(), parts.Test.NumRows())
	}

	seen := make(map[int]int)
	for _, idx := range parts.TrainIdx {
		seen[idx]++
	}
	for _, idx := range parts.ValidationIdx {
		seen[idx]++
	}
	for _, idx := range parts.TestIdx {
		seen[idx]++
	}
	if len(seen) != frame.NumRows() {
		t.Fatalf("union covers %d rows, want %d", len(seen), frame.NumRows())
	}
	for idx, count := range seen {
		if count != 1 {
			t.Fatalf("row %d appears in %d partitions", idx, count)
		}
	}
}

func TestSplitPreservesClassProportions(t *testing.T) {
	frame := balancedFrame(t, 500, []string{"A", "B", "C", "D", "E"})

	parts, err := Split(frame, "classe", 0.8, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	labels, err := parts.Train.Column("classe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := make(map[string]int)
	for _, label := range labels {
		counts[label]++
	}
	expected := float64(len(labels)) / 5
	for class, count := range counts {
		if math.Abs(float64(count)-expected) > 1 {
			t.Fatalf("class %s has %d training rows, expected about %.0f", class, count, expected)
		}
	}
}

func TestSplitFailsOnTinyClass(t *testing.T) {
	rows := [][]string{
		{"1", "A"}, {"2", "A"}, {"3", "A"}, {"4", "A"}, {"5", "A"},
		{"6", "A"}, {"7", "A"}, {"8", "A"}, {"9", "A"}, {"10", "A"},
		{"11", "B"},
	}
	frame, err := NewFrame([]string{"id", "classe"}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Split(frame, "classe", 0.8, 3); err == nil {
		t.Fatal("expected error when a class cannot be stratified")
	}
}

func TestSplitRejectsBadFraction(t *testing.T) {
	frame := balancedFrame(t, 20, []string{"A", "B"})
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		if _, _, err := StratifiedSplit(frame, "classe", frac, 1); err == nil {
			t.Fatalf("expected error for fraction %v", frac)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	frame := balancedFrame(t, 100, []string{"A", "B", "C", "D", "E"})

	first, _, err := StratifiedSplit(frame, "classe", 0.8, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := StratifiedSplit(frame, "classe", 0.8, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("index %d differs: %d vs %d", i, first[i], second[i])
		}
	}
}
