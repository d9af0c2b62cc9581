package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
)

// Factory builds a fresh, untrained classifier for one cross-validation fold.
type Factory func() Classifier

// KFoldIndices assigns shuffled row indices to k folds round-robin.
func KFoldIndices(n, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, errors.New("k must be at least 2")
	}
	if n < k {
		return nil, fmt.Errorf("cannot build %d folds from %d rows", k, n)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, idx := range perm {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds, nil
}

// CrossValidate runs k-fold cross-validation and returns the mean held-fold
// accuracy. Folds train in parallel; each fold gets its own model from the
// factory and only reads the shared matrices.
func CrossValidate(factory Factory, features [][]float64, labels []int, k int, seed int64) (float64, error) {
	if _, _, err := validateTrainingData(features, labels); err != nil {
		return 0, err
	}
	folds, err := KFoldIndices(len(features), k, seed)
	if err != nil {
		return 0, err
	}

	accuracies := make([]float64, k)
	errs := make([]error, k)
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())

	for fold := 0; fold < k; fold++ {
		wg.Add(1)
		go func(fold int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			accuracies[fold], errs[fold] = scoreFold(factory, features, labels, folds, fold)
		}(fold)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}
	mean := 0.0
	for _, acc := range accuracies {
		mean += acc
	}
	return mean / float64(k), nil
}

func scoreFold(factory Factory, features [][]float64, labels []int, folds [][]int, held int) (float64, error) {
	var trainX [][]float64
	var trainY []int
	for f, fold := range folds {
		if f == held {
			continue
		}
		for _, idx := range fold {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		}
	}

	model := factory()
	if err := model.Fit(trainX, trainY); err != nil {
		return 0, fmt.Errorf("fold %d: %w", held, err)
	}

	correct := 0
	for _, idx := range folds[held] {
		label, err := model.Predict(features[idx])
		if err != nil {
			return 0, fmt.Errorf("fold %d: %w", held, err)
		}
		if label == labels[idx] {
			correct++
		}
	}
	return float64(correct) / float64(len(folds[held])), nil
}
