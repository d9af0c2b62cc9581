package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sensorclass/config"
	"sensorclass/dataset"
	"sensorclass/ml"
)

// Results holds everything a run produces: per-variant accuracies,
// confusion matrices on the test partition, the forest's variable
// importance, and decoded quiz predictions.
type Results struct {
	Classes  []string
	Features []string

	TrainSize      int
	ValidationSize int
	TestSize       int
	QuizSize       int

	SVC    VariantResult
	Forest VariantResult

	SVCConfusion    *ml.ConfusionMatrix
	ForestConfusion *ml.ConfusionMatrix

	ForestImportance []float64

	QuizIDs          []string
	QuizSVCLabels    []string
	QuizForestLabels []string
}

// VariantResult is one classifier variant's evaluation.
type VariantResult struct {
	Name               string
	ValidationAccuracy float64
	TestAccuracy       float64
	OOBAccuracy        *float64
	CVAccuracy         *float64
	Duration           time.Duration
}

// Run executes the whole pipeline: fetch, partition, filter, train both
// variants, evaluate, predict the quiz set, and save model artifacts.
func Run(cfg *config.Config, logger *zap.Logger) (*Results, error) {
	opts := dataset.LoadOptions{Encoding: cfg.Data.Encoding}

	pool, err := dataset.FetchAndLoad(cfg.Data.TrainURL, cfg.Data.TrainPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load training pool: %w", err)
	}
	quiz, err := dataset.FetchAndLoad(cfg.Data.QuizURL, cfg.Data.QuizPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load quiz set: %w", err)
	}
	logger.Info("datasets loaded",
		zap.Int("pool_rows", pool.NumRows()),
		zap.Int("quiz_rows", quiz.NumRows()))

	parts, err := dataset.Split(pool, cfg.Data.Label, cfg.Split.TrainFraction, cfg.Split.Seed)
	if err != nil {
		return nil, fmt.Errorf("partition pool: %w", err)
	}
	logger.Info("pool partitioned",
		zap.Int("train", parts.Train.NumRows()),
		zap.Int("validation", parts.Validation.NumRows()),
		zap.Int("test", parts.Test.NumRows()))

	mask, err := dataset.BuildMask(parts.Train, dataset.MaskConfig{
		Label:        cfg.Data.Label,
		Identifiers:  cfg.Data.Identifiers,
		DropPrefixes: cfg.Data.DropPrefixes,
	})
	if err != nil {
		return nil, fmt.Errorf("build feature mask: %w", err)
	}
	logger.Info("feature mask built", zap.Int("features", len(mask.Keep)))

	matrices, labels, err := extract(mask, pool, parts, quiz, cfg.Data.Label)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Classes:        labels.classes,
		Features:       mask.Keep,
		TrainSize:      parts.Train.NumRows(),
		ValidationSize: parts.Validation.NumRows(),
		TestSize:       parts.Test.NumRows(),
		QuizSize:       quiz.NumRows(),
	}

	svc := ml.NewLinearSVC(ml.SVCConfig{
		Epochs:       cfg.SVC.Epochs,
		LearningRate: cfg.SVC.LearningRate,
		Lambda:       cfg.SVC.Lambda,
		Seed:         cfg.Split.Seed,
	})
	results.SVC, results.SVCConfusion, err = trainAndEvaluate("linear_svc", svc, matrices, labels, logger)
	if err != nil {
		return nil, err
	}

	forestCfg := ml.ForestConfig{
		Trees:           cfg.Forest.Trees,
		MaxDepth:        cfg.Forest.MaxDepth,
		MinSamplesSplit: cfg.Forest.MinSamplesSplit,
		MaxFeatures:     cfg.Forest.MaxFeatures,
		Workers:         cfg.Forest.Workers,
		Seed:            cfg.Split.Seed,
	}
	forest := ml.NewRandomForest(forestCfg)
	results.Forest, results.ForestConfusion, err = trainAndEvaluate("random_forest", forest, matrices, labels, logger)
	if err != nil {
		return nil, err
	}
	if oob, ok := forest.OOBAccuracy(); ok {
		results.Forest.OOBAccuracy = &oob
	}
	results.ForestImportance = forest.Importance()

	cv, err := ml.CrossValidate(func() ml.Classifier {
		return ml.NewRandomForest(forestCfg)
	}, matrices.train, labels.train, cfg.Forest.Folds, cfg.Split.Seed)
	if err != nil {
		return nil, fmt.Errorf("cross-validate forest: %w", err)
	}
	results.Forest.CVAccuracy = &cv
	logger.Info("forest cross-validated",
		zap.Int("folds", cfg.Forest.Folds),
		zap.Float64("accuracy", cv))

	if err := predictQuiz(results, svc, forest, matrices.quiz, quiz, cfg.Data.QuizIDColumn); err != nil {
		return nil, err
	}

	if cfg.Models.Dir != "" {
		if err := saveArtifacts(cfg.Models.Dir, mask, labels.classes, svc, forest); err != nil {
			return nil, fmt.Errorf("save artifacts: %w", err)
		}
		logger.Info("artifacts saved", zap.String("dir", cfg.Models.Dir))
	}
	return results, nil
}

type matrixSet struct {
	train      [][]float64
	validation [][]float64
	test       [][]float64
	quiz       [][]float64
}

type labelSet struct {
	classes    []string
	train      []int
	validation []int
	test       []int
}

// extract applies the mask identically to every partition and encodes the
// labels once over the full pool so class codes agree across partitions.
func extract(mask *dataset.Mask, pool *dataset.Frame, parts *dataset.Partitions, quiz *dataset.Frame, label string) (*matrixSet, *labelSet, error) {
	poolLabels, err := pool.Column(label)
	if err != nil {
		return nil, nil, err
	}
	codes, classes, err := dataset.EncodeLabels(poolLabels)
	if err != nil {
		return nil, nil, fmt.Errorf("encode labels: %w", err)
	}

	pick := func(indices []int) []int {
		out := make([]int, len(indices))
		for i, idx := range indices {
			out[i] = codes[idx]
		}
		return out
	}
	labels := &labelSet{
		classes:    classes,
		train:      pick(parts.TrainIdx),
		validation: pick(parts.ValidationIdx),
		test:       pick(parts.TestIdx),
	}

	matrices := &matrixSet{}
	if matrices.train, err = mask.Matrix(parts.Train); err != nil {
		return nil, nil, fmt.Errorf("train matrix: %w", err)
	}
	if matrices.validation, err = mask.Matrix(parts.Validation); err != nil {
		return nil, nil, fmt.Errorf("validation matrix: %w", err)
	}
	if matrices.test, err = mask.Matrix(parts.Test); err != nil {
		return nil, nil, fmt.Errorf("test matrix: %w", err)
	}
	if matrices.quiz, err = mask.Matrix(quiz); err != nil {
		return nil, nil, fmt.Errorf("quiz matrix: %w", err)
	}
	return matrices, labels, nil
}

func trainAndEvaluate(name string, model ml.Classifier, matrices *matrixSet, labels *labelSet, logger *zap.Logger) (VariantResult, *ml.ConfusionMatrix, error) {
	start := time.Now()
	if err := model.Fit(matrices.train, labels.train); err != nil {
		return VariantResult{}, nil, fmt.Errorf("train %s: %w", name, err)
	}

	validationPred, err := ml.PredictAll(model, matrices.validation)
	if err != nil {
		return VariantResult{}, nil, fmt.Errorf("evaluate %s: %w", name, err)
	}
	testPred, err := ml.PredictAll(model, matrices.test)
	if err != nil {
		return VariantResult{}, nil, fmt.Errorf("evaluate %s: %w", name, err)
	}

	confusion, err := ml.NewConfusionMatrix(labels.test, testPred, labels.classes)
	if err != nil {
		return VariantResult{}, nil, err
	}

	result := VariantResult{
		Name:               name,
		ValidationAccuracy: ml.Accuracy(labels.validation, validationPred),
		TestAccuracy:       ml.Accuracy(labels.test, testPred),
		Duration:           time.Since(start),
	}
	logger.Info("variant trained",
		zap.String("model", name),
		zap.Float64("validation_accuracy", result.ValidationAccuracy),
		zap.Float64("test_accuracy", result.TestAccuracy),
		zap.Duration("duration", result.Duration))
	return result, confusion, nil
}

func predictQuiz(results *Results, svc, forest ml.Classifier, quizMatrix [][]float64, quiz *dataset.Frame, idColumn string) error {
	svcPred, err := ml.PredictAll(svc, quizMatrix)
	if err != nil {
		return fmt.Errorf("quiz predictions (svc): %w", err)
	}
	forestPred, err := ml.PredictAll(forest, quizMatrix)
	if err != nil {
		return fmt.Errorf("quiz predictions (forest): %w", err)
	}

	if results.QuizSVCLabels, err = dataset.DecodeLabels(svcPred, results.Classes); err != nil {
		return err
	}
	if results.QuizForestLabels, err = dataset.DecodeLabels(forestPred, results.Classes); err != nil {
		return err
	}

	results.QuizIDs = make([]string, quiz.NumRows())
	if ids, err := quiz.Column(idColumn); idColumn != "" && err == nil {
		copy(results.QuizIDs, ids)
	} else {
		for i := range results.QuizIDs {
			results.QuizIDs[i] = strconv.Itoa(i + 1)
		}
	}
	return nil
}

func saveArtifacts(dir string, mask *dataset.Mask, classes []string, svc, forest ml.Classifier) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := mask.Save(filepath.Join(dir, "mask.json")); err != nil {
		return err
	}
	if err := dataset.SaveClasses(filepath.Join(dir, "classes.json"), classes); err != nil {
		return err
	}
	if err := svc.Save(filepath.Join(dir, "svc.model")); err != nil {
		return err
	}
	return forest.Save(filepath.Join(dir, "forest.model"))
}
