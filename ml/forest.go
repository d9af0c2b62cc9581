package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"
)

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MaxFeatures     int   `json:"max_features"` // 0 means sqrt of feature count
	Workers         int   `json:"workers"`
	Seed            int64 `json:"seed"`
}

// RandomForest bags gini decision trees over bootstrap samples. Trees train
// in parallel on a bounded worker pool; they share only the read-only
// training matrix. The out-of-bag vote gives an internal accuracy estimate
// without a separate validation set.
type RandomForest struct {
	cfg       ForestConfig
	trees     []*DecisionTree
	nFeatures int
	nClasses  int
	oob       float64
	hasOOB    bool
}

func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 12
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &RandomForest{cfg: cfg}
}

func (rf *RandomForest) Fit(features [][]float64, labels []int) error {
	nFeatures, nClasses, err := validateTrainingData(features, labels)
	if err != nil {
		return err
	}
	rf.nFeatures = nFeatures
	rf.nClasses = nClasses

	maxFeatures := rf.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	n := len(features)
	rf.trees = make([]*DecisionTree, rf.cfg.Trees)
	inBag := make([][]bool, rf.cfg.Trees)

	jobs := make(chan int)
	errCh := make(chan error, rf.cfg.Trees)
	var wg sync.WaitGroup

	for w := 0; w < rf.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for treeIdx := range jobs {
				// Per-tree source keeps sampling deterministic and
				// free of contention across workers.
				rng := rand.New(rand.NewSource(rf.cfg.Seed + int64(treeIdx)))
				sample := make([]int, n)
				bag := make([]bool, n)
				for i := range sample {
					pick := rng.Intn(n)
					sample[i] = pick
					bag[pick] = true
				}

				tree := NewDecisionTree(TreeConfig{
					MaxDepth:        rf.cfg.MaxDepth,
					MinSamplesSplit: rf.cfg.MinSamplesSplit,
					MaxFeatures:     maxFeatures,
					Seed:            rf.cfg.Seed + int64(treeIdx),
				})
				if err := tree.fitIndices(features, labels, sample); err != nil {
					errCh <- fmt.Errorf("tree %d: %w", treeIdx, err)
					continue
				}
				rf.trees[treeIdx] = tree
				inBag[treeIdx] = bag
			}
		}()
	}

	for i := 0; i < rf.cfg.Trees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}

	rf.computeOOB(features, labels, inBag)
	return nil
}

// computeOOB scores each row with only the trees that never saw it during
// training, then records the accuracy over rows with at least one vote.
func (rf *RandomForest) computeOOB(features [][]float64, labels []int, inBag [][]bool) {
	correct, voted := 0, 0
	for i, row := range features {
		votes := make([]int, rf.nClasses)
		any := false
		for t, tree := range rf.trees {
			if inBag[t][i] {
				continue
			}
			label, err := tree.Predict(row)
			if err != nil || label >= rf.nClasses {
				continue
			}
			votes[label]++
			any = true
		}
		if !any {
			continue
		}
		voted++
		if argmax(votes) == labels[i] {
			correct++
		}
	}
	if voted > 0 {
		rf.oob = float64(correct) / float64(voted)
		rf.hasOOB = true
	}
}

func (rf *RandomForest) Predict(features []float64) (int, error) {
	if len(rf.trees) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != rf.nFeatures {
		return 0, errors.New("vector width does not match trained model")
	}
	votes := make([]int, rf.nClasses)
	for _, tree := range rf.trees {
		label, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		if label >= len(votes) {
			return 0, fmt.Errorf("tree voted for unknown class %d", label)
		}
		votes[label]++
	}
	return argmax(votes), nil
}

// OOBAccuracy returns the out-of-bag estimate. ok is false when no row had
// an out-of-bag vote (only possible with very few trees).
func (rf *RandomForest) OOBAccuracy() (float64, bool) {
	return rf.oob, rf.hasOOB
}

// Importance averages impurity-decrease importance over all trees,
// normalized to sum to 1.
func (rf *RandomForest) Importance() []float64 {
	if len(rf.trees) == 0 {
		return nil
	}
	total := make([]float64, rf.nFeatures)
	for _, tree := range rf.trees {
		for i, v := range tree.Importance() {
			total[i] += v
		}
	}
	sum := 0.0
	for _, v := range total {
		sum += v
	}
	if sum > 0 {
		for i := range total {
			total[i] /= sum
		}
	}
	return total
}

func argmax(values []int) int {
	best, bestValue := 0, -1
	for i, v := range values {
		if v > bestValue {
			best = i
			bestValue = v
		}
	}
	return best
}

type forestModelFile struct {
	Config    ForestConfig    `json:"config"`
	Trees     []treeModelFile `json:"trees"`
	NFeatures int             `json:"n_features"`
	NClasses  int             `json:"n_classes"`
	OOB       float64         `json:"oob"`
	HasOOB    bool            `json:"has_oob"`
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return errors.New("model not trained")
	}
	file := forestModelFile{
		Config:    rf.cfg,
		NFeatures: rf.nFeatures,
		NClasses:  rf.nClasses,
		OOB:       rf.oob,
		HasOOB:    rf.hasOOB,
	}
	for _, tree := range rf.trees {
		file.Trees = append(file.Trees, treeModelFile{
			Config:     tree.cfg,
			Nodes:      tree.nodes,
			NFeatures:  tree.nFeatures,
			Importance: tree.importance,
		})
	}
	payload, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file forestModelFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return err
	}
	if len(file.Trees) == 0 {
		return errors.New("empty forest model")
	}
	rf.cfg = file.Config
	rf.nFeatures = file.NFeatures
	rf.nClasses = file.NClasses
	rf.oob = file.OOB
	rf.hasOOB = file.HasOOB
	rf.trees = make([]*DecisionTree, len(file.Trees))
	for i, t := range file.Trees {
		rf.trees[i] = &DecisionTree{
			cfg:        t.Config,
			nodes:      t.Nodes,
			nFeatures:  t.NFeatures,
			importance: t.Importance,
		}
	}
	return nil
}
