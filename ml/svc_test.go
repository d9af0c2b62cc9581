package ml

import (
	"path/filepath"
	"testing"
)

func TestLinearSVCLearnsSeparableData(t *testing.T) {
	features, labels := clusterData(90, 3)

	svc := NewLinearSVC(SVCConfig{Epochs: 50, LearningRate: 0.01, Lambda: 1e-4, Seed: 1})
	if err := svc.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := PredictAll(svc, features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc := Accuracy(labels, predictions); acc < 0.9 {
		t.Fatalf("expected high training accuracy on separable data, got %v", acc)
	}
}

func TestLinearSVCRejectsSingleClass(t *testing.T) {
	features := [][]float64{{1, 2}, {3, 4}}
	labels := []int{0, 0}
	svc := NewLinearSVC(SVCConfig{})
	if err := svc.Fit(features, labels); err == nil {
		t.Fatal("expected error for single-class training data")
	}
}

func TestLinearSVCPredictBeforeFit(t *testing.T) {
	svc := NewLinearSVC(SVCConfig{})
	if _, err := svc.Predict([]float64{1, 2}); err == nil {
		t.Fatal("expected error for untrained model")
	}
}

func TestLinearSVCSaveLoad(t *testing.T) {
	features, labels := clusterData(60, 3)

	svc := NewLinearSVC(SVCConfig{Epochs: 30, Seed: 1})
	if err := svc.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "svc.model")
	if err := svc.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := &LinearSVC{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range features {
		want, err := svc.Predict(row)
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

func TestScalerZeroVarianceColumn(t *testing.T) {
	scaler := &Scaler{}
	if err := scaler.Fit([][]float64{{1, 5}, {2, 5}, {3, 5}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, err := scaler.TransformRow([]float64{2, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[0] != 0 {
		t.Fatalf("mean value should scale to 0, got %v", row[0])
	}
	if row[1] != 0 {
		t.Fatalf("zero-variance column should scale to 0, got %v", row[1])
	}
}
