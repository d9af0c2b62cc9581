package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sensorclass/config"
	"sensorclass/db"
	"sensorclass/logging"
	"sensorclass/pipeline"
	"sensorclass/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Database.Path != "" {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.CloseDB()
	}

	results, err := pipeline.Run(cfg, logger)
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	if err := render(results); err != nil {
		logger.Fatal("failed to render report", zap.Error(err))
	}

	if cfg.Database.Path != "" {
		if err := persist(results); err != nil {
			logger.Fatal("failed to record run", zap.Error(err))
		}
	}
}

// loadConfig falls back to defaults when no config file exists, so the
// pipeline runs without any setup.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func render(results *pipeline.Results) error {
	summary := []report.ModelResult{
		{
			Name:               results.SVC.Name,
			ValidationAccuracy: results.SVC.ValidationAccuracy,
			TestAccuracy:       results.SVC.TestAccuracy,
		},
		{
			Name:               results.Forest.Name,
			ValidationAccuracy: results.Forest.ValidationAccuracy,
			TestAccuracy:       results.Forest.TestAccuracy,
			OOBAccuracy:        results.Forest.OOBAccuracy,
			CVAccuracy:         results.Forest.CVAccuracy,
		},
	}
	if err := report.WriteSummary(os.Stdout, summary); err != nil {
		return err
	}
	fmt.Println()
	if err := report.WriteConfusion(os.Stdout, "linear SVC, test partition", results.SVCConfusion); err != nil {
		return err
	}
	fmt.Println()
	if err := report.WriteConfusion(os.Stdout, "random forest, test partition", results.ForestConfusion); err != nil {
		return err
	}
	fmt.Println()
	if err := report.WriteImportance(os.Stdout, results.Features, results.ForestImportance, 20); err != nil {
		return err
	}
	fmt.Println()
	return report.WriteQuizPredictions(os.Stdout, "quiz predictions (random forest)", results.QuizIDs, results.QuizForestLabels)
}

func persist(results *pipeline.Results) error {
	svcRun := &db.Run{
		ID:                 db.NewRunID(),
		Model:              results.SVC.Name,
		ValidationAccuracy: results.SVC.ValidationAccuracy,
		TestAccuracy:       results.SVC.TestAccuracy,
		DataPoints:         results.TrainSize,
	}
	if err := db.SaveRun(svcRun); err != nil {
		return err
	}

	forestRun := &db.Run{
		ID:                 db.NewRunID(),
		Model:              results.Forest.Name,
		ValidationAccuracy: results.Forest.ValidationAccuracy,
		TestAccuracy:       results.Forest.TestAccuracy,
		OOBAccuracy:        results.Forest.OOBAccuracy,
		CVAccuracy:         results.Forest.CVAccuracy,
		DataPoints:         results.TrainSize,
	}
	if err := db.SaveRun(forestRun); err != nil {
		return err
	}
	if err := db.SaveImportance(forestRun.ID, results.Features, results.ForestImportance); err != nil {
		return err
	}
	return db.SaveQuizPredictions(forestRun.ID, results.QuizIDs, results.QuizForestLabels)
}
