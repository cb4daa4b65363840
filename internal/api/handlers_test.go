package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"cyberforge-corpus/config"
	"cyberforge-corpus/internal/archive"
	"cyberforge-corpus/internal/corpus"
	"cyberforge-corpus/internal/seed"
	"cyberforge-corpus/pkg/telemetry"
)

func newTestServer(t *testing.T) (http.Handler, *corpus.Manager, *config.AppConfig) {
	t.Helper()

	cfg := &config.AppConfig{
		ServiceName: "corpusd-test",
		CorpusConfig: config.CorpusConfig{
			MaxEntries:    100,
			MaxTotalBytes: 1 << 20,
			ArchiveDir:    t.TempDir(),
			Durability:    "best-effort",
		},
		APIAddr: "127.0.0.1:0",
	}
	store, err := archive.NewStore(cfg.CorpusConfig.ArchiveDir, zap.NewNop(), nil)
	require.NoError(t, err)
	manager := corpus.New(corpus.Options{}, store, zap.NewNop())

	server := NewAPIServer(ServerParams{
		Lifecycle: fxtest.NewLifecycle(t),
		Manager:   manager,
		Telemetry: telemetry.Noop(),
		Logger:    zap.NewNop(),
		Config:    cfg,
	})
	return server.Handler, manager, cfg
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := get(handler, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestAddAndGetSeed(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := postJSON(t, handler, "/seeds", AddSeedRequest{
		Input:    []byte("api seeded input"),
		Coverage: []uint32{1, 2, 3},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var added AddSeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	require.Len(t, added.ID, 16)

	rec = get(handler, "/seed?id="+added.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		ID       string   `json:"id"`
		Input    []byte   `json:"input"`
		Coverage []uint32 `json:"coverage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, []byte("api seeded input"), got.Input)
	assert.Equal(t, []uint32{1, 2, 3}, got.Coverage)
}

func TestAddSeedRejectsEmptyInput(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := postJSON(t, handler, "/seeds", AddSeedRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSeedMissing(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := get(handler, "/seed?id=0123456789abcdef")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopSeedsEndpoint(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	_, err := manager.AddSeed([]byte("low"), make([]uint32, 1), nil)
	require.NoError(t, err)
	_, err = manager.AddSeed([]byte("high"), make([]uint32, 8), nil)
	require.NoError(t, err)

	rec := get(handler, "/seeds/top?count=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var top []struct {
		Coverage []uint32 `json:"coverage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top, 1)
	assert.Len(t, top[0].Coverage, 8)
}

func TestStatsEndpoint(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	id, err := manager.AddSeed([]byte("stat me"), nil, nil)
	require.NoError(t, err)
	_, ok := manager.GetSeed(id)
	require.True(t, ok)
	_, ok = manager.GetSeed("ffffffffffffffff")
	require.False(t, ok)

	rec := get(handler, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats corpus.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalSeeds)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)
	assert.NotEmpty(t, stats.MemoryUsage)
}

func TestCapacityEndpoint(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	_, err := manager.AddSeed([]byte("occupant"), nil, nil)
	require.NoError(t, err)

	rec := get(handler, "/capacity")
	require.Equal(t, http.StatusOK, rec.Code)

	var c corpus.Capacity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 1, c.Current)
	assert.Greater(t, c.Max, 0)
}

func TestExportImportEndpoints(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	for _, input := range []string{"one", "two", "three"} {
		_, err := manager.AddSeed([]byte(input), nil, nil)
		require.NoError(t, err)
	}

	rec := postJSON(t, handler, "/export", ExportRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	var exported ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exported))
	_, err := os.Stat(exported.Path)
	require.NoError(t, err)

	manager.Clear()

	rec = postJSON(t, handler, "/import", ImportRequest{Path: exported.Path})
	require.Equal(t, http.StatusOK, rec.Code)

	var imported ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.Equal(t, 3, imported.Imported)
	assert.Equal(t, 3, manager.GetStats().TotalSeeds)
}

func TestImportFailureIsAnErrorResponse(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := postJSON(t, handler, "/import", ImportRequest{
		Path: filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "import failed")
}

func TestPruneEndpoint(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	_, err := manager.AddSeed([]byte("young"), nil, nil)
	require.NoError(t, err)

	rec := postJSON(t, handler, "/prune", PruneRequest{MaxAgeMs: 3600000})
	require.Equal(t, http.StatusOK, rec.Code)

	var pruned PruneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pruned))
	assert.Equal(t, 0, pruned.Pruned)
}

func TestPruneRejectsBadThreshold(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := postJSON(t, handler, "/prune", PruneRequest{MaxAgeMs: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMaintenanceEndpointsRequirePost(t *testing.T) {
	handler, _, _ := newTestServer(t)
	for _, path := range []string{"/export", "/import", "/prune", "/clear", "/seed/restore?id=x"} {
		rec := get(handler, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "GET %s", path)
	}
}

func TestRestoreSeedEndpoint(t *testing.T) {
	handler, manager, _ := newTestServer(t)

	id, err := manager.AddSeed([]byte("restore me"), []uint32{5}, nil)
	require.NoError(t, err)

	// Backdate the live entry so a prune archives and drops it.
	s, ok := manager.GetSeed(id)
	require.True(t, ok)
	s.Timestamp = s.Timestamp.Add(-2 * time.Hour)

	rec := postJSON(t, handler, "/prune", PruneRequest{MaxAgeMs: 3600000})
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok = manager.GetSeed(id)
	require.False(t, ok)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed/restore?id="+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var restored struct {
		Metadata *seed.Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restored))
	require.NotNil(t, restored.Metadata)
	assert.Equal(t, seed.OriginRestored, restored.Metadata.Origin)

	_, ok = manager.GetSeed(id)
	assert.True(t, ok)
}

func TestRestoreSeedMissesWhenNeverArchived(t *testing.T) {
	handler, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed/restore?id=0123456789abcdef", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddSeedBase64Wire(t *testing.T) {
	handler, _, _ := newTestServer(t)

	// Raw JSON with explicit base64, as an external client would send it.
	raw := fmt.Sprintf(`{"input":%q,"coverage":[1]}`,
		base64.StdEncoding.EncodeToString([]byte{0xde, 0xad, 0xbe, 0xef}))
	req := httptest.NewRequest(http.MethodPost, "/seeds", bytes.NewReader([]byte(raw)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
