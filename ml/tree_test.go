package ml

import (
	"path/filepath"
	"testing"
)

// clusterData builds linearly separable clusters, one per class. The third
// column is constant noise so models must ignore it.
func clusterData(n, classes int) ([][]float64, []int) {
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		class := i % classes
		jitter := float64(i%7)/10 - 0.3
		features[i] = []float64{
			float64(class)*10 + jitter,
			float64(class)*-5 + jitter,
			1.0,
		}
		labels[i] = class
	}
	return features, labels
}

func TestDecisionTreeLearnsSeparableData(t *testing.T) {
	features, labels := clusterData(60, 3)

	tree := NewDecisionTree(TreeConfig{MaxDepth: 6, Seed: 1})
	if err := tree.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := PredictAll(tree, features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc := Accuracy(labels, predictions); acc < 0.95 {
		t.Fatalf("expected near-perfect training accuracy, got %v", acc)
	}
}

func TestDecisionTreeRejectsBadInput(t *testing.T) {
	tree := NewDecisionTree(TreeConfig{})
	if err := tree.Fit(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := tree.Fit([][]float64{{1, 2}}, []int{0, 1}); err == nil {
		t.Fatal("expected error for size mismatch")
	}
	if _, err := tree.Predict([]float64{1}); err == nil {
		t.Fatal("expected error for untrained model")
	}
}

func TestDecisionTreeImportanceIgnoresConstantColumn(t *testing.T) {
	features, labels := clusterData(60, 3)

	tree := NewDecisionTree(TreeConfig{MaxDepth: 6, Seed: 1})
	if err := tree.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	importance := tree.Importance()
	if importance[2] != 0 {
		t.Fatalf("constant column received importance %v", importance[2])
	}
	if importance[0]+importance[1] == 0 {
		t.Fatal("informative columns received no importance")
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	features, labels := clusterData(30, 3)

	tree := NewDecisionTree(TreeConfig{MaxDepth: 6, Seed: 1})
	if err := tree.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tree.model")
	if err := tree.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := &DecisionTree{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range features {
		want, err := tree.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := loaded.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("row %d: loaded model predicts %d, original %d", i, got, want)
		}
	}
}
