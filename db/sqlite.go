package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"bmipredict/features"
	"bmipredict/inference"
)

// Store journals served predictions in SQLite.
type Store struct {
	database *sql.DB
}

// PredictionLog is one journal row.
type PredictionLog struct {
	ID         string                 `json:"id"`
	Category   string                 `json:"category"`
	ClassIndex int                    `json:"class_index"`
	Confidence float64                `json:"confidence"`
	BMI        float64                `json:"bmi"`
	Record     features.EncodedRecord `json:"record"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        prediction_id TEXT NOT NULL,
        category TEXT NOT NULL,
        class_index INTEGER NOT NULL,
        confidence REAL NOT NULL,
        bmi REAL NOT NULL,
        features TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        UNIQUE(prediction_id)
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	if s == nil || s.database == nil {
		return nil
	}
	return s.database.Close()
}

// SavePrediction records a served prediction and returns its journal entry.
func (s *Store) SavePrediction(record features.EncodedRecord, prediction inference.Prediction) (PredictionLog, error) {
	if s == nil || s.database == nil {
		return PredictionLog{}, errors.New("database not initialized")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return PredictionLog{}, err
	}
	entry := PredictionLog{
		ID:         uuid.NewString(),
		Category:   prediction.Category,
		ClassIndex: prediction.ClassIndex,
		Confidence: prediction.Confidence,
		BMI:        record.BMI,
		Record:     record,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.database.Exec(`
        INSERT INTO predictions (
            prediction_id, category, class_index, confidence, bmi, features, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Category, entry.ClassIndex, entry.Confidence, entry.BMI, string(payload), entry.CreatedAt)
	if err != nil {
		return PredictionLog{}, err
	}
	return entry, nil
}

// RecentPredictions returns up to limit entries, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionLog, error) {
	if s == nil || s.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.database.Query(`
        SELECT prediction_id, category, class_index, confidence, bmi, features, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]PredictionLog, 0)
	for rows.Next() {
		var (
			log     PredictionLog
			payload string
		)
		if err := rows.Scan(&log.ID, &log.Category, &log.ClassIndex, &log.Confidence, &log.BMI, &payload, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &log.Record); err != nil {
			return nil, fmt.Errorf("decode features of %s: %w", log.ID, err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// CategoryCounts aggregates the journal by category.
func (s *Store) CategoryCounts() (map[string]int, error) {
	if s == nil || s.database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := s.database.Query(`SELECT category, COUNT(*) FROM predictions GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}
