// Package snapshot loads bundled analysis-result JSON files from the data
// directory. Datasets are read-only demo snapshots; uploaded analyses live
// in the SQLite store instead.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/banklens/churnboard/internal/models"
)

// Store holds the analysis snapshots found in the data directory
type Store struct {
	dataDir  string
	datasets map[string]*models.AnalysisResult
	mu       sync.RWMutex
}

// NewStore scans dataDir for *.json analysis files and loads them into
// memory. Malformed files are skipped with a warning; an empty directory
// yields a usable empty store plus an error the caller may log.
func NewStore(dataDir string) (*Store, error) {
	store := &Store{
		dataDir:  dataDir,
		datasets: make(map[string]*models.AnalysisResult),
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return store, fmt.Errorf("failed to read data directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dataDir, entry.Name())
		if err := store.loadDataset(name, path); err != nil {
			log.Printf("Warning: failed to load dataset %s: %v", name, err)
			continue
		}
		log.Printf("Loaded dataset: %s (%s)", name, path)
	}

	if len(store.datasets) == 0 {
		return store, fmt.Errorf("no analysis datasets found in %s", dataDir)
	}

	return store, nil
}

// loadDataset reads a single analysis-result JSON file into memory
func (store *Store) loadDataset(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	store.datasets[name] = &result
	return nil
}

// Names returns the loaded dataset names in lexical order
func (store *Store) Names() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	names := make([]string, 0, len(store.datasets))
	for name := range store.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the analysis result for a dataset
func (store *Store) Get(name string) (*models.AnalysisResult, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	result, ok := store.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %s not loaded", name)
	}
	return result, nil
}

// Close releases resources
func (store *Store) Close() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.datasets = nil
}
