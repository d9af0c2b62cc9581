package ml

import "testing"

func TestKFoldIndicesPartitionRows(t *testing.T) {
	folds, err := KFoldIndices(103, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(folds) != 10 {
		t.Fatalf("expected 10 folds, got %d", len(folds))
	}

	seen := make(map[int]int)
	for _, fold := range folds {
		if len(fold) < 10 || len(fold) > 11 {
			t.Fatalf("uneven fold size %d", len(fold))
		}
		for _, idx := range fold {
			seen[idx]++
		}
	}
	if len(seen) != 103 {
		t.Fatalf("folds cover %d rows, want 103", len(seen))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Fatalf("row %d assigned to %d folds", idx, count)
		}
	}
}

func TestKFoldIndicesErrors(t *testing.T) {
	if _, err := KFoldIndices(100, 1, 0); err == nil {
		t.Fatal("expected error for k < 2")
	}
	if _, err := KFoldIndices(3, 10, 0); err == nil {
		t.Fatal("expected error for too few rows")
	}
}

func TestCrossValidateForest(t *testing.T) {
	features, labels := clusterData(100, 5)

	accuracy, err := CrossValidate(func() Classifier {
		return NewRandomForest(ForestConfig{Trees: 15, MaxDepth: 8, Workers: 2, Seed: 3})
	}, features, labels, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accuracy <= 0.5 || accuracy > 1 {
		t.Fatalf("cross-validated accuracy %v outside expected range", accuracy)
	}
}
