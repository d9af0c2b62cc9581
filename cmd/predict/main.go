package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"sensorclass/dataset"
	"sensorclass/ml"
	"sensorclass/report"
)

// predict scores an unlabeled quiz CSV with models saved by a pipeline run.
// With -watch it keeps running and re-scores whenever the file changes.
func main() {
	modelsDir := flag.String("models", "models", "directory with saved model artifacts")
	quizPath := flag.String("quiz", "data/pml-testing.csv", "quiz CSV to score")
	idColumn := flag.String("id_column", "problem_id", "quiz row identifier column")
	encoding := flag.String("encoding", "", "source encoding (gbk, latin1)")
	variant := flag.String("model", "forest", "model variant: forest or svc")
	watch := flag.Bool("watch", false, "re-score whenever the quiz file changes")
	flag.Parse()

	model, err := loadModel(*modelsDir, *variant)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	mask, err := dataset.LoadMask(filepath.Join(*modelsDir, "mask.json"))
	if err != nil {
		log.Fatalf("failed to load feature mask: %v", err)
	}
	classes, err := dataset.LoadClasses(filepath.Join(*modelsDir, "classes.json"))
	if err != nil {
		log.Fatalf("failed to load classes: %v", err)
	}

	scorer := &scorer{
		model:    model,
		mask:     mask,
		classes:  classes,
		idColumn: *idColumn,
		opts:     dataset.LoadOptions{Encoding: *encoding},
	}
	// Parsed frames are memoized on path+modtime so re-scoring after an
	// unrelated event does not re-read the CSV.
	scorer.cache, err = lru.New[string, *dataset.Frame](8)
	if err != nil {
		log.Fatalf("failed to build frame cache: %v", err)
	}

	if err := scorer.score(*quizPath); err != nil {
		log.Fatalf("failed to score %s: %v", *quizPath, err)
	}
	if !*watch {
		return
	}
	if err := watchAndScore(scorer, *quizPath); err != nil {
		log.Fatalf("watch failed: %v", err)
	}
}

func loadModel(dir, variant string) (ml.Classifier, error) {
	switch variant {
	case "forest":
		model := &ml.RandomForest{}
		return model, model.Load(filepath.Join(dir, "forest.model"))
	case "svc":
		model := &ml.LinearSVC{}
		return model, model.Load(filepath.Join(dir, "svc.model"))
	default:
		return nil, fmt.Errorf("unknown model variant %q", variant)
	}
}

type scorer struct {
	model    ml.Classifier
	mask     *dataset.Mask
	classes  []string
	idColumn string
	opts     dataset.LoadOptions
	cache    *lru.Cache[string, *dataset.Frame]
}

func (s *scorer) score(path string) error {
	frame, err := s.load(path)
	if err != nil {
		return err
	}
	matrix, err := s.mask.Matrix(frame)
	if err != nil {
		return err
	}
	predictions, err := ml.PredictAll(s.model, matrix)
	if err != nil {
		return err
	}
	labels, err := dataset.DecodeLabels(predictions, s.classes)
	if err != nil {
		return err
	}

	ids := make([]string, frame.NumRows())
	if column, err := frame.Column(s.idColumn); s.idColumn != "" && err == nil {
		copy(ids, column)
	} else {
		for i := range ids {
			ids[i] = fmt.Sprintf("%d", i+1)
		}
	}
	return report.WriteQuizPredictions(os.Stdout, fmt.Sprintf("predictions for %s", path), ids, labels)
}

func (s *scorer) load(path string) (*dataset.Frame, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s@%d", path, info.ModTime().UnixNano())
	if frame, ok := s.cache.Get(key); ok {
		return frame, nil
	}
	frame, err := dataset.Load(path, s.opts)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, frame)
	return frame, nil
}

// watchAndScore re-scores the quiz file on every write. The watch is on the
// parent directory because editors replace files rather than write in place.
func watchAndScore(s *scorer, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	log.Printf("watching %s", path)

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.score(path); err != nil {
				log.Printf("failed to score %s: %v", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}
