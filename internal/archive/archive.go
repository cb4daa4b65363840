// Package archive is the durable overflow tier of the corpus: one JSON file
// per archived seed, named by the seed's content ID, under a fixed archive
// directory.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cyberforge-corpus/internal/seed"
)

// ErrNotFound reports that no (readable) archived record exists for an ID.
// Rehydration misses are expected outcomes, never panics.
var ErrNotFound = errors.New("seed not found in archive")

const seedFileExt = ".json"

// Recorder receives a best-effort notification for every archived seed.
// The campaign ledger implements it; a nil Recorder disables recording.
type Recorder interface {
	RecordArchived(ctx context.Context, s *seed.Seed)
}

// Store reads and writes archived seed records.
type Store struct {
	dir      string
	logger   *zap.Logger
	recorder Recorder
}

// NewStore creates the archive directory hierarchy if absent.
func NewStore(dir string, logger *zap.Logger, recorder Recorder) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Store{
		dir:      dir,
		logger:   logger,
		recorder: recorder,
	}, nil
}

// Dir returns the archive directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Archive serializes the full seed record to <dir>/<id>.json. Concurrent
// writers under the same ID write identical content, so last-write-wins is
// benign.
func (s *Store) Archive(ctx context.Context, sd *seed.Seed) error {
	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize seed %s: %w", sd.ID, err)
	}
	if err := os.WriteFile(s.seedPath(sd.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write seed %s to archive: %w", sd.ID, err)
	}
	if s.recorder != nil {
		s.recorder.RecordArchived(ctx, sd)
	}
	s.logger.Debug("archived seed",
		zap.String("id", sd.ID),
		zap.Int("input_bytes", len(sd.Input)),
		zap.Int("coverage_points", len(sd.Coverage)))
	return nil
}

// Load reads an archived record. Missing files and corrupt serializations
// both come back as ErrNotFound; corruption is additionally logged, since it
// means a durable copy was silently lost.
func (s *Store) Load(ctx context.Context, id string) (*seed.Seed, error) {
	data, err := os.ReadFile(s.seedPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read archived seed %s: %w", id, err)
	}
	var sd seed.Seed
	if err := json.Unmarshal(data, &sd); err != nil {
		s.logger.Warn("malformed archive file, treating as miss",
			zap.String("id", id),
			zap.Error(err))
		return nil, ErrNotFound
	}
	return &sd, nil
}

// Count returns the number of seed records on durable storage.
func (s *Store) Count() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to list archive directory", zap.Error(err))
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), seedFileExt) {
			n++
		}
	}
	return n
}

// Export serializes the given seeds (the live cache contents, by contract)
// to a single JSON file for external transfer. I/O failures propagate: this
// is an explicit maintenance operation where silent failure would mislead.
func (s *Store) Export(ctx context.Context, path string, seeds []*seed.Seed) error {
	data, err := json.MarshalIndent(seeds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize corpus export: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write corpus export: %w", err)
	}
	s.logger.Info("exported corpus",
		zap.String("path", path),
		zap.Int("seed_count", len(seeds)))
	return nil
}

// Import reads a previously exported file. The caller re-inserts the seeds
// into the live cache under the usual capacity rules.
func (s *Store) Import(ctx context.Context, path string) ([]*seed.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus export: %w", err)
	}
	var seeds []*seed.Seed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse corpus export: %w", err)
	}
	s.logger.Info("imported corpus",
		zap.String("path", path),
		zap.Int("seed_count", len(seeds)))
	return seeds, nil
}

func (s *Store) seedPath(id string) string {
	return filepath.Join(s.dir, id+seedFileExt)
}
