// Package store persists uploaded analysis results in a SQLite database in
// the data directory.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/banklens/churnboard/internal/models"
)

// AnalysisMeta is a saved-analysis listing row without the full result blob
type AnalysisMeta struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CreatedAt      string `json:"created_at"`
	TotalCustomers int    `json:"total_customers"`
}

// Store handles saved-analysis persistence
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (creating if necessary) the analyses database in dataDir
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "analyses.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analyses database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		total_customers INTEGER NOT NULL,
		results TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create analyses table: %w", err)
	}

	return &Store{db: db}, nil
}

// List returns all saved analyses, newest first
func (s *Store) List() ([]*AnalysisMeta, error) {
	rows, err := s.db.Query(
		"SELECT id, name, created_at, total_customers FROM analyses ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*AnalysisMeta
	for rows.Next() {
		meta := &AnalysisMeta{}
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.CreatedAt, &meta.TotalCustomers); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		analyses = append(analyses, meta)
	}
	return analyses, rows.Err()
}

// Get retrieves a saved analysis result by ID
func (s *Store) Get(id string) (*models.AnalysisResult, error) {
	var blob string
	err := s.db.QueryRow("SELECT results FROM analyses WHERE id = ?", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return nil, fmt.Errorf("failed to parse stored analysis %s: %w", id, err)
	}
	return &result, nil
}

// Create saves a new analysis result and returns its listing metadata
func (s *Store) Create(name string, result *models.AnalysisResult) (*AnalysisMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	meta := &AnalysisMeta{
		ID:             uuid.New().String(),
		Name:           name,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		TotalCustomers: result.Summary.TotalCustomers,
	}

	_, err = s.db.Exec(
		"INSERT INTO analyses (id, name, created_at, total_customers, results) VALUES (?, ?, ?, ?, ?)",
		meta.ID, meta.Name, meta.CreatedAt, meta.TotalCustomers, string(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return meta, nil
}

// Delete removes a saved analysis
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
