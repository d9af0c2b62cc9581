package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Partitions are disjoint row subsets of one source frame. Their union is
// the full frame.
type Partitions struct {
	Train      *Frame
	Validation *Frame
	Test       *Frame

	TrainIdx      []int
	ValidationIdx []int
	TestIdx       []int
}

// Split partitions a labeled frame into train/validation/test. trainFrac of
// each class goes to training; the remainder is divided evenly between
// validation and test, all stratified on the label column.
func Split(f *Frame, label string, trainFrac float64, seed int64) (*Partitions, error) {
	labels, err := f.Column(label)
	if err != nil {
		return nil, err
	}

	all := make([]int, f.NumRows())
	for i := range all {
		all[i] = i
	}
	rng := rand.New(rand.NewSource(seed))

	trainIdx, holdIdx, err := splitIndices(labels, all, trainFrac, rng)
	if err != nil {
		return nil, err
	}
	validationIdx, testIdx, err := splitIndices(labels, holdIdx, 0.5, rng)
	if err != nil {
		return nil, err
	}

	train, err := f.Select(trainIdx)
	if err != nil {
		return nil, err
	}
	validation, err := f.Select(validationIdx)
	if err != nil {
		return nil, err
	}
	test, err := f.Select(testIdx)
	if err != nil {
		return nil, err
	}

	return &Partitions{
		Train:         train,
		Validation:    validation,
		Test:          test,
		TrainIdx:      trainIdx,
		ValidationIdx: validationIdx,
		TestIdx:       testIdx,
	}, nil
}

// StratifiedSplit divides the frame's rows into two index sets, preserving
// per-class proportions. frac is the share assigned to the first set.
func StratifiedSplit(f *Frame, label string, frac float64, seed int64) ([]int, []int, error) {
	labels, err := f.Column(label)
	if err != nil {
		return nil, nil, err
	}
	all := make([]int, f.NumRows())
	for i := range all {
		all[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	return splitIndices(labels, all, frac, rng)
}

func splitIndices(labels []string, subset []int, frac float64, rng *rand.Rand) (first, second []int, err error) {
	if frac <= 0 || frac >= 1 {
		return nil, nil, fmt.Errorf("fraction %v out of range (0, 1)", frac)
	}

	byClass := make(map[string][]int)
	for _, idx := range subset {
		class := labels[idx]
		byClass[class] = append(byClass[class], idx)
	}

	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		indices := byClass[class]
		n := int(math.Round(frac * float64(len(indices))))
		if n == 0 || n == len(indices) {
			return nil, nil, fmt.Errorf("class %q has %d rows, cannot satisfy fraction %.2f", class, len(indices), frac)
		}
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		first = append(first, indices[:n]...)
		second = append(second, indices[n:]...)
	}

	sort.Ints(first)
	sort.Ints(second)
	return first, second, nil
}
