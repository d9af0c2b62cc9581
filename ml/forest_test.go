package ml

import (
	"path/filepath"
	"testing"
)

func TestRandomForestLearnsSeparableData(t *testing.T) {
	features, labels := clusterData(100, 5)

	forest := NewRandomForest(ForestConfig{Trees: 25, MaxDepth: 8, Workers: 4, Seed: 1})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := PredictAll(forest, features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc := Accuracy(labels, predictions); acc < 0.9 {
		t.Fatalf("expected high training accuracy, got %v", acc)
	}
}

func TestRandomForestOOBEstimate(t *testing.T) {
	features, labels := clusterData(100, 5)

	forest := NewRandomForest(ForestConfig{Trees: 25, MaxDepth: 8, Workers: 4, Seed: 1})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oob, ok := forest.OOBAccuracy()
	if !ok {
		t.Fatal("expected an out-of-bag estimate")
	}
	if oob <= 0 || oob > 1 {
		t.Fatalf("out-of-bag accuracy %v out of range", oob)
	}
}

func TestRandomForestImportanceRanking(t *testing.T) {
	features, labels := clusterData(100, 5)

	forest := NewRandomForest(ForestConfig{Trees: 25, MaxDepth: 8, Workers: 4, Seed: 1})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	importance := forest.Importance()
	if len(importance) != 3 {
		t.Fatalf("expected 3 importance values, got %d", len(importance))
	}
	if importance[2] != 0 {
		t.Fatalf("constant column received importance %v", importance[2])
	}
	sum := importance[0] + importance[1] + importance[2]
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("importance should normalize to 1, got %v", sum)
	}
}

func TestRandomForestDeterministicAcrossWorkerCounts(t *testing.T) {
	features, labels := clusterData(60, 3)

	serial := NewRandomForest(ForestConfig{Trees: 10, MaxDepth: 6, Workers: 1, Seed: 9})
	if err := serial.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel := NewRandomForest(ForestConfig{Trees: 10, MaxDepth: 6, Workers: 8, Seed: 9})
	if err := parallel.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, row := range features {
		a, err := serial.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := parallel.Predict(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != b {
			t.Fatalf("row %d: worker counts disagree (%d vs %d)", i, a, b)
		}
	}
}

func TestRandomForestSaveLoad(t *testing.T) {
	features, labels := clusterData(60, 3)

	forest := NewRandomForest(ForestConfig{Trees: 10, MaxDepth: 6, Workers: 2, Seed: 1})
	if err := forest.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "forest.model")
	if err := forest.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := &RandomForest{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oob, ok := loaded.OOBAccuracy()
	if !ok || oob <= 0 {
		t.Fatalf("loaded model lost its out-of-bag estimate: %v %v", oob, ok)
	}
	for i, row := range features {
		want, err := forest.Predict(row)
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
