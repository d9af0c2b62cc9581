package ml

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
)

// SVCConfig holds linear SVC hyperparameters.
type SVCConfig struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	Lambda       float64 `json:"lambda"` // L2 regularization strength
	Seed         int64   `json:"seed"`
}

// LinearSVC is a one-vs-rest linear support vector classifier trained with
// stochastic subgradient descent on the hinge loss. A standard scaler is
// fitted from the training matrix and applied to every later prediction, so
// the margins are comparable across features with different units.
type LinearSVC struct {
	cfg      SVCConfig
	scaler   Scaler
	weights  [][]float64
	biases   []float64
	nClasses int
}

func NewLinearSVC(cfg SVCConfig) *LinearSVC {
	if cfg.Epochs <= 0 {
		cfg.Epochs = 20
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.Lambda <= 0 {
		cfg.Lambda = 1e-4
	}
	return &LinearSVC{cfg: cfg}
}

func (m *LinearSVC) Fit(features [][]float64, labels []int) error {
	nFeatures, nClasses, err := validateTrainingData(features, labels)
	if err != nil {
		return err
	}
	if nClasses < 2 {
		return errors.New("need at least two classes")
	}

	if err := m.scaler.Fit(features); err != nil {
		return err
	}
	scaled, err := m.scaler.Transform(features)
	if err != nil {
		return err
	}

	m.nClasses = nClasses
	m.weights = make([][]float64, nClasses)
	m.biases = make([]float64, nClasses)
	for c := range m.weights {
		m.weights[c] = make([]float64, nFeatures)
	}

	order := make([]int, len(scaled))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(m.cfg.Seed))

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for _, idx := range order {
			row := scaled[idx]
			for c := 0; c < nClasses; c++ {
				target := -1.0
				if labels[idx] == c {
					target = 1.0
				}
				m.step(c, row, target)
			}
		}
	}
	return nil
}

// step applies one subgradient update for a single class against one row.
func (m *LinearSVC) step(class int, row []float64, target float64) {
	w := m.weights[class]
	margin := m.biases[class]
	for i, v := range row {
		margin += w[i] * v
	}
	margin *= target

	lr := m.cfg.LearningRate
	decay := 1 - lr*m.cfg.Lambda
	if margin < 1 {
		for i, v := range row {
			w[i] = w[i]*decay + lr*target*v
		}
		m.biases[class] += lr * target
	} else {
		for i := range w {
			w[i] *= decay
		}
	}
}

func (m *LinearSVC) Predict(features []float64) (int, error) {
	if len(m.weights) == 0 {
		return 0, errors.New("model not trained")
	}
	scaled, err := m.scaler.TransformRow(features)
	if err != nil {
		return 0, err
	}
	best := 0
	bestScore := 0.0
	for c := 0; c < m.nClasses; c++ {
		score := m.biases[c]
		for i, v := range scaled {
			score += m.weights[c][i] * v
		}
		if c == 0 || score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best, nil
}

type svcModelFile struct {
	Config   SVCConfig   `json:"config"`
	Scaler   Scaler      `json:"scaler"`
	Weights  [][]float64 `json:"weights"`
	Biases   []float64   `json:"biases"`
	NClasses int         `json:"n_classes"`
}

func (m *LinearSVC) Save(path string) error {
	if len(m.weights) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(svcModelFile{
		Config:   m.cfg,
		Scaler:   m.scaler,
		Weights:  m.weights,
		Biases:   m.biases,
		NClasses: m.nClasses,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (m *LinearSVC) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file svcModelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Weights) == 0 {
		return errors.New("empty svc model")
	}
	m.cfg = file.Config
	m.scaler = file.Scaler
	m.weights = file.Weights
	m.biases = file.Biases
	m.nClasses = file.NClasses
	return nil
}
