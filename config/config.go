package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Data struct {
		TrainURL     string   `yaml:"train_url"`
		QuizURL      string   `yaml:"quiz_url"`
		TrainPath    string   `yaml:"train_path"`
		QuizPath     string   `yaml:"quiz_path"`
		Encoding     string   `yaml:"encoding"`
		Label        string   `yaml:"label"`
		QuizIDColumn string   `yaml:"quiz_id_column"`
		Identifiers  []string `yaml:"identifier_columns"`
		DropPrefixes []string `yaml:"drop_prefixes"`
	} `yaml:"data"`
	Split struct {
		TrainFraction float64 `yaml:"train_fraction"`
		Seed          int64   `yaml:"seed"`
	} `yaml:"split"`
	SVC struct {
		Epochs       int     `yaml:"epochs"`
		LearningRate float64 `yaml:"learning_rate"`
		Lambda       float64 `yaml:"lambda"`
	} `yaml:"svc"`
	Forest struct {
		Trees           int `yaml:"trees"`
		MaxDepth        int `yaml:"max_depth"`
		MinSamplesSplit int `yaml:"min_samples_split"`
		MaxFeatures     int `yaml:"max_features"`
		Workers         int `yaml:"workers"`
		Folds           int `yaml:"folds"`
	} `yaml:"forest"`
	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
}

// Default returns the configuration for the weight-lifting sensor dataset.
// The aggregate-column prefixes are configuration, not code: they name
// summary columns that are entirely missing in the quiz set.
func Default() *Config {
	cfg := &Config{}
	cfg.Data.TrainURL = "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-training.csv"
	cfg.Data.QuizURL = "https://d396qusza40orc.cloudfront.net/predmachlearn/pml-testing.csv"
	cfg.Data.TrainPath = "data/pml-training.csv"
	cfg.Data.QuizPath = "data/pml-testing.csv"
	cfg.Data.Label = "classe"
	cfg.Data.QuizIDColumn = "problem_id"
	cfg.Data.Identifiers = []string{
		"X", "user_name",
		"raw_timestamp_part_1", "raw_timestamp_part_2", "cvtd_timestamp",
		"new_window", "num_window",
	}
	cfg.Data.DropPrefixes = []string{
		"kurtosis_", "skewness_", "max_", "min_", "amplitude_",
		"var_", "avg_", "stddev_",
	}
	cfg.Split.TrainFraction = 0.8
	cfg.Split.Seed = 1813
	cfg.SVC.Epochs = 30
	cfg.SVC.LearningRate = 0.01
	cfg.SVC.Lambda = 1e-4
	cfg.Forest.Trees = 100
	cfg.Forest.MaxDepth = 16
	cfg.Forest.MinSamplesSplit = 2
	cfg.Forest.Folds = 10
	cfg.Models.Dir = "models"
	cfg.Database.Path = "sensorclass.db"
	cfg.Log.Level = "info"
	cfg.Log.File = "sensorclass.log"
	cfg.Log.MaxSizeMB = 20
	cfg.Log.MaxBackups = 3
	return cfg
}

// Load reads a YAML config, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Data.Label == "" {
		return fmt.Errorf("data.label is required")
	}
	if c.Split.TrainFraction <= 0 || c.Split.TrainFraction >= 1 {
		return fmt.Errorf("split.train_fraction %v out of range (0, 1)", c.Split.TrainFraction)
	}
	if c.Forest.Folds < 2 {
		return fmt.Errorf("forest.folds must be at least 2")
	}
	return nil
}
