package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/internal/seed"
	"cyberforge-corpus/pkg/telemetry"
)

// AddSeedRequest is the body of POST /seeds. Input is base64 in JSON, per
// encoding/json []byte convention.
type AddSeedRequest struct {
	Input    []byte   `json:"input"`
	Coverage []uint32 `json:"coverage"`
	Origin   string   `json:"origin"`
}

// AddSeedResponse returns the content-derived seed ID.
type AddSeedResponse struct {
	ID string `json:"id"`
}

// ExportRequest carries an optional target path for POST /export.
type ExportRequest struct {
	Path string `json:"path"`
}

// ExportResponse reports where the corpus was written.
type ExportResponse struct {
	Path string `json:"path"`
}

// ImportRequest carries the source path for POST /import.
type ImportRequest struct {
	Path string `json:"path"`
}

// ImportResponse reports how many seeds entered the live cache.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// PruneRequest carries the age threshold for POST /prune.
type PruneRequest struct {
	MaxAgeMs int64 `json:"max_age_ms"`
}

// PruneResponse reports how many seeds were archived and removed.
type PruneResponse struct {
	Pruned int `json:"pruned"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleHealth reports readiness
func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	}
}

// handleStats returns the current corpus statistics
func handleStats(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := manager.GetStats()
		logger.Debug("received stats request",
			zap.Int("total_seeds", stats.TotalSeeds),
			zap.Float64("hit_rate", stats.HitRate))
		writeJSON(w, http.StatusOK, stats)
	}
}

// handleCapacity returns live cache occupancy against the entry ceiling
func handleCapacity(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.GetCapacity())
	}
}

// handleSeeds adds a seed (POST) or samples seeds (GET)
func handleSeeds(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req AddSeedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(req.Input) == 0 {
				writeError(w, http.StatusBadRequest, "input is required")
				return
			}
			metadata := &seed.Metadata{Origin: seed.OriginUser}
			if req.Origin != "" {
				metadata.Origin = seed.Origin(req.Origin)
			}
			id, err := manager.AddSeed(req.Input, req.Coverage, metadata)
			if err != nil {
				logger.Error("failed to add seed via API", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to add seed")
				return
			}
			writeJSON(w, http.StatusOK, AddSeedResponse{ID: id})
		case http.MethodGet:
			writeJSON(w, http.StatusOK, manager.GetSeeds(countParam(r)))
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// handleTopSeeds returns seeds ranked by coverage for mutation scheduling
func handleTopSeeds(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.GetTopSeeds(countParam(r)))
	}
}

// handleGetSeed returns a single live seed; counts toward hit/miss
func handleGetSeed(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		s, ok := manager.GetSeed(id)
		if !ok {
			writeError(w, http.StatusNotFound, "seed not found")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// handleRestoreSeed explicitly rehydrates an archived seed
func handleRestoreSeed(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		s, err := manager.LoadArchivedSeed(r.Context(), id)
		if err != nil {
			logger.Error("failed to rehydrate seed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to restore seed")
			return
		}
		if s == nil {
			writeError(w, http.StatusNotFound, "seed not found in archive")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// handleExport writes the live corpus to a single file. A maintenance
// failure here surfaces as an error response; it never crashes the session.
func handleExport(manager *corpus.Manager, cfg *config.AppConfig, tel telemetry.Telemetry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req ExportRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		path := req.Path
		if path == "" {
			path = filepath.Join(cfg.CorpusConfig.ArchiveDir, "exports",
				"corpus-"+uuid.New().String()+".json")
		}

		ctx, span := tel.GetTracer().Start(r.Context(), "export_corpus")
		defer span.End()

		if err := manager.ExportCorpus(ctx, path); err != nil {
			logger.Error("corpus export failed", zap.String("path", path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		writeJSON(w, http.StatusOK, ExportResponse{Path: path})
	}
}

// handleImport loads a previously exported corpus file into the live cache
func handleImport(manager *corpus.Manager, tel telemetry.Telemetry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}

		ctx, span := tel.GetTracer().Start(r.Context(), "import_corpus")
		defer span.End()

		imported, err := manager.ImportCorpus(ctx, req.Path)
		if err != nil {
			logger.Error("corpus import failed", zap.String("path", req.Path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "import failed")
			return
		}
		writeJSON(w, http.StatusOK, ImportResponse{Imported: imported})
	}
}

// handlePrune archives and removes live seeds older than the threshold
func handlePrune(manager *corpus.Manager, tel telemetry.Telemetry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req PruneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxAgeMs <= 0 {
			writeError(w, http.StatusBadRequest, "max_age_ms must be positive")
			return
		}

		ctx, span := tel.GetTracer().Start(r.Context(), "prune_old_seeds")
		defer span.End()

		pruned, err := manager.PruneOldSeeds(ctx, time.Duration(req.MaxAgeMs)*time.Millisecond)
		if err != nil {
			logger.Error("prune failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "prune failed")
			return
		}
		writeJSON(w, http.StatusOK, PruneResponse{Pruned: pruned})
	}
}

// handleClear drops the entire live cache without archiving
func handleClear(manager *corpus.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		manager.Clear()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("cleared"))
	}
}

func countParam(r *http.Request) int {
	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}
	return count
}
