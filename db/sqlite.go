package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the run-history schema.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id VARCHAR(36) PRIMARY KEY,
        model VARCHAR(50),
        validation_accuracy REAL,
        test_accuracy REAL,
        oob_accuracy REAL,
        cv_accuracy REAL,
        data_points INTEGER,
        trained_at DATETIME
    );
    CREATE TABLE IF NOT EXISTS quiz_predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id VARCHAR(36),
        row_id VARCHAR(50),
        predicted_label VARCHAR(20),
        created_at DATETIME
    );
    CREATE TABLE IF NOT EXISTS feature_importance (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id VARCHAR(36),
        feature VARCHAR(100),
        importance REAL
    );`
	_, err = database.Exec(query)
	return err
}

func CloseDB() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// Run is one trained model variant's recorded result.
type Run struct {
	ID                 string
	Model              string
	ValidationAccuracy float64
	TestAccuracy       float64
	OOBAccuracy        *float64
	CVAccuracy         *float64
	DataPoints         int
	TrainedAt          time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

func SaveRun(run *Run) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now()
	}
	_, err := database.Exec(
		`INSERT INTO runs (id, model, validation_accuracy, test_accuracy, oob_accuracy, cv_accuracy, data_points, trained_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Model, run.ValidationAccuracy, run.TestAccuracy,
		nullable(run.OOBAccuracy), nullable(run.CVAccuracy),
		run.DataPoints, run.TrainedAt,
	)
	return err
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// SaveQuizPredictions records the predicted label for each quiz row.
func SaveQuizPredictions(runID string, rowIDs, labels []string) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if len(rowIDs) != len(labels) {
		return errors.New("row ids and labels size mismatch")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO quiz_predictions (run_id, row_id, predicted_label, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range rowIDs {
		if _, err := stmt.Exec(runID, rowIDs[i], labels[i], now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SaveImportance records the variable-importance ranking of a run.
func SaveImportance(runID string, features []string, importance []float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if len(features) != len(importance) {
		return errors.New("features and importance size mismatch")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO feature_importance (run_id, feature, importance) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range features {
		if _, err := stmt.Exec(runID, features[i], importance[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first.
func RecentRuns(limit int) ([]Run, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := database.Query(
		`SELECT id, model, validation_accuracy, test_accuracy, oob_accuracy, cv_accuracy, data_points, trained_at
         FROM runs ORDER BY trained_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var oob, cv sql.NullFloat64
		if err := rows.Scan(&run.ID, &run.Model, &run.ValidationAccuracy, &run.TestAccuracy,
			&oob, &cv, &run.DataPoints, &run.TrainedAt); err != nil {
			return nil, err
		}
		if oob.Valid {
			run.OOBAccuracy = &oob.Float64
		}
		if cv.Valid {
			run.CVAccuracy = &cv.Float64
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
