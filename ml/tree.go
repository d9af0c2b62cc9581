package ml

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"sort"
)

const maxThresholdCandidates = 16

// TreeConfig holds decision tree hyperparameters.
type TreeConfig struct {
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MaxFeatures     int   `json:"max_features"` // 0 means all features
	Seed            int64 `json:"seed"`
}

type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Label     int     `json:"label"`
	Leaf      bool    `json:"leaf"`
}

// DecisionTree is a gini-impurity classification tree. Nodes are stored in
// a flat slice so the model serializes to JSON without pointer chasing.
type DecisionTree struct {
	cfg        TreeConfig
	nodes      []treeNode
	importance []float64
	nFeatures  int
}

func NewDecisionTree(cfg TreeConfig) *DecisionTree {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	return &DecisionTree{cfg: cfg}
}

func (t *DecisionTree) Fit(features [][]float64, labels []int) error {
	if _, _, err := validateTrainingData(features, labels); err != nil {
		return err
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	return t.fitIndices(features, labels, indices)
}

// fitIndices trains on a row subset, leaving the matrix itself untouched.
// The forest uses this for bootstrap samples.
func (t *DecisionTree) fitIndices(features [][]float64, labels []int, indices []int) error {
	if len(indices) == 0 {
		return errors.New("no training rows")
	}
	t.nFeatures = len(features[0])
	t.nodes = nil
	t.importance = make([]float64, t.nFeatures)

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	t.build(features, labels, indices, 0, rng, len(indices))
	return nil
}

func (t *DecisionTree) build(features [][]float64, labels []int, indices []int, depth int, rng *rand.Rand, total int) int {
	label := majorityLabel(labels, indices)
	self := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{Feature: -1, Left: -1, Right: -1, Label: label, Leaf: true})

	if depth >= t.cfg.MaxDepth || len(indices) < t.cfg.MinSamplesSplit || isPure(labels, indices) {
		return self
	}

	feature, threshold, gain, ok := t.findBestSplit(features, labels, indices, rng)
	if !ok {
		return self
	}

	var left, right []int
	for _, idx := range indices {
		if features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return self
	}

	t.importance[feature] += gain * float64(len(indices)) / float64(total)

	leftChild := t.build(features, labels, left, depth+1, rng, total)
	rightChild := t.build(features, labels, right, depth+1, rng, total)

	t.nodes[self] = treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftChild,
		Right:     rightChild,
		Label:     label,
		Leaf:      false,
	}
	return self
}

// findBestSplit scans a random feature subset for the threshold with the
// lowest weighted gini impurity. gain is the impurity decrease relative to
// the unsplit node.
func (t *DecisionTree) findBestSplit(features [][]float64, labels []int, indices []int, rng *rand.Rand) (feature int, threshold, gain float64, ok bool) {
	parent := giniIndices(labels, indices)
	bestImpurity := parent
	feature = -1

	for _, f := range t.candidateFeatures(rng) {
		for _, candidate := range thresholdCandidates(features, indices, f) {
			impurity, valid := splitImpurity(features, labels, indices, f, candidate)
			if valid && impurity < bestImpurity {
				bestImpurity = impurity
				feature = f
				threshold = candidate
			}
		}
	}
	if feature == -1 {
		return -1, 0, 0, false
	}
	return feature, threshold, parent - bestImpurity, true
}

func (t *DecisionTree) candidateFeatures(rng *rand.Rand) []int {
	k := t.cfg.MaxFeatures
	if k <= 0 || k >= t.nFeatures {
		all := make([]int, t.nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(t.nFeatures)[:k]
}

// thresholdCandidates returns midpoints between distinct sorted values,
// subsampled to keep split search bounded on wide numeric columns.
func thresholdCandidates(features [][]float64, indices []int, feature int) []float64 {
	values := make([]float64, 0, len(indices))
	for _, idx := range indices {
		values = append(values, features[idx][feature])
	}
	sort.Float64s(values)

	distinct := values[:1]
	for _, v := range values[1:] {
		if v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	midpoints := make([]float64, 0, len(distinct)-1)
	for i := 1; i < len(distinct); i++ {
		midpoints = append(midpoints, (distinct[i-1]+distinct[i])/2)
	}
	if len(midpoints) <= maxThresholdCandidates {
		return midpoints
	}

	step := float64(len(midpoints)) / float64(maxThresholdCandidates)
	sampled := make([]float64, 0, maxThresholdCandidates)
	for i := 0; i < maxThresholdCandidates; i++ {
		sampled = append(sampled, midpoints[int(float64(i)*step)])
	}
	return sampled
}

func splitImpurity(features [][]float64, labels []int, indices []int, feature int, threshold float64) (float64, bool) {
	var left, right []int
	for _, idx := range indices {
		if features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return 0, false
	}
	total := float64(len(indices))
	impurity := (float64(len(left))/total)*giniIndices(labels, left) +
		(float64(len(right))/total)*giniIndices(labels, right)
	return impurity, true
}

func giniIndices(labels []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, idx := range indices {
		counts[labels[idx]]++
	}
	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(len(indices))
		impurity -= p * p
	}
	return impurity
}

func majorityLabel(labels []int, indices []int) int {
	counts := make(map[int]int)
	best, bestCount := 0, -1
	for _, idx := range indices {
		label := labels[idx]
		counts[label]++
		if counts[label] > bestCount || (counts[label] == bestCount && label < best) {
			bestCount = counts[label]
			best = label
		}
	}
	return best
}

func isPure(labels []int, indices []int) bool {
	if len(indices) == 0 {
		return true
	}
	first := labels[indices[0]]
	for _, idx := range indices[1:] {
		if labels[idx] != first {
			return false
		}
	}
	return true
}

func (t *DecisionTree) Predict(features []float64) (int, error) {
	if len(t.nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != t.nFeatures {
		return 0, errors.New("vector width does not match trained model")
	}
	idx := 0
	for {
		node := t.nodes[idx]
		if node.Leaf {
			return node.Label, nil
		}
		value := features[node.Feature]
		if math.IsNaN(value) || value <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// Importance returns the accumulated impurity decrease per feature.
func (t *DecisionTree) Importance() []float64 {
	out := make([]float64, len(t.importance))
	copy(out, t.importance)
	return out
}

type treeModelFile struct {
	Config     TreeConfig `json:"config"`
	Nodes      []treeNode `json:"nodes"`
	NFeatures  int        `json:"n_features"`
	Importance []float64  `json:"importance"`
}

func (t *DecisionTree) Save(path string) error {
	if len(t.nodes) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(treeModelFile{
		Config:     t.cfg,
		Nodes:      t.nodes,
		NFeatures:  t.nFeatures,
		Importance: t.importance,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (t *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file treeModelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Nodes) == 0 {
		return errors.New("empty tree model")
	}
	t.cfg = file.Config
	t.nodes = file.Nodes
	t.nFeatures = file.NFeatures
	t.importance = file.Importance
	return nil
}
