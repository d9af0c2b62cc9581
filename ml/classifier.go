package ml

import "errors"

// Classifier is the capability both model variants implement.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	Predict(features []float64) (int, error)
	Save(path string) error
	Load(path string) error
}

// PredictAll runs Predict over every row.
func PredictAll(c Classifier, features [][]float64) ([]int, error) {
	predictions := make([]int, len(features))
	for i, row := range features {
		label, err := c.Predict(row)
		if err != nil {
			return nil, err
		}
		predictions[i] = label
	}
	return predictions, nil
}

func validateTrainingData(features [][]float64, labels []int) (nFeatures, nClasses int, err error) {
	if len(features) == 0 || len(labels) == 0 {
		return 0, 0, errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return 0, 0, errors.New("features and labels size mismatch")
	}
	nFeatures = len(features[0])
	for _, row := range features {
		if len(row) != nFeatures {
			return 0, 0, errors.New("ragged feature matrix")
		}
	}
	for _, label := range labels {
		if label < 0 {
			return 0, 0, errors.New("negative label")
		}
		if label+1 > nClasses {
			nClasses = label + 1
		}
	}
	return nFeatures, nClasses, nil
}
