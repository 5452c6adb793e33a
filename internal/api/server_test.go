package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battlelens/battlelens/internal/config"
	"github.com/battlelens/battlelens/internal/insights"
	"github.com/battlelens/battlelens/internal/llm"
	"github.com/battlelens/battlelens/internal/models"
	"github.com/battlelens/battlelens/internal/quota"
	"github.com/battlelens/battlelens/internal/vision"
)

// fakeStore is an in-memory HistoryStore for handler tests.
type fakeStore struct {
	entries map[string]*models.HistoryEntry
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*models.HistoryEntry)}
}

func (f *fakeStore) Connect(ctx context.Context) error    { return nil }
func (f *fakeStore) Disconnect(ctx context.Context) error { return nil }

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.failing {
		return fmt.Errorf("connection lost")
	}
	return nil
}

func (f *fakeStore) SaveEntry(ctx context.Context, entry *models.HistoryEntry) error {
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeStore) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, fmt.Errorf("battle not found: %s", id)
	}
	return entry, nil
}

func (f *fakeStore) ListEntries(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	for _, entry := range f.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeStore) DeleteEntry(ctx context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return fmt.Errorf("battle not found: %s", id)
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) ClearEntries(ctx context.Context) (int, error) {
	removed := len(f.entries)
	f.entries = make(map[string]*models.HistoryEntry)
	return removed, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*models.HistoryStats, error) {
	stats := &models.HistoryStats{TotalBattles: len(f.entries)}
	for _, entry := range f.entries {
		if entry.Outcome == "Victory" {
			stats.Wins++
		}
		stats.TotalDamageDealt += entry.DamageDealt
		stats.TotalKills += entry.EnemyKilled
	}
	if stats.TotalBattles > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalBattles) * 100
	}
	return stats, nil
}

type serverOptions struct {
	apiKey       string
	upstream     http.HandlerFunc
	maxPerWindow int
	dailyLimit   int
	store        *fakeStore
}

func newTestServer(t *testing.T, opts serverOptions) (*Server, *fakeStore) {
	t.Helper()

	if opts.maxPerWindow == 0 {
		opts.maxPerWindow = 5
	}
	if opts.dailyLimit == 0 {
		opts.dailyLimit = 50
	}
	if opts.store == nil {
		opts.store = newFakeStore()
	}

	baseURL := "http://127.0.0.1:0"
	if opts.upstream != nil {
		upstream := httptest.NewServer(opts.upstream)
		t.Cleanup(upstream.Close)
		baseURL = upstream.URL
	}

	cfg := config.DefaultConfig()
	cfg.Limits.RequestsPerMinute = opts.maxPerWindow
	cfg.Limits.DailyLimit = opts.dailyLimit

	governor := quota.NewMemory(quota.Config{
		Window:       time.Minute,
		MaxPerWindow: opts.maxPerWindow,
		DailyLimit:   opts.dailyLimit,
	})
	proxy := vision.NewProxy(opts.apiKey, baseURL, "test-model", 4096, 5*time.Second, governor)
	generator := insights.New(llm.NewRegistry(), governor, insights.Config{})

	return NewServer(cfg, governor, proxy, generator, opts.store), opts.store
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAnalyze(t *testing.T) {
	t.Run("rejects a body without messages", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{apiKey: "key"})

		w := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"max_tokens": 100})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request: messages required", decode(t, w)["error"])
	})

	t.Run("returns the upstream reply augmented with usage_info", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{
			apiKey: "key",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"content": []map[string]string{{"type": "text", "text": "{}"}},
				})
			},
		})

		w := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{{"role": "user"}}})
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.Contains(t, body, "content")
		usage, ok := body["usage_info"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, float64(1), usage["requests_today"])
		assert.Equal(t, float64(50), usage["daily_limit"])
		assert.Equal(t, float64(49), usage["remaining"])
	})

	t.Run("denies the excess request within the window", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{
			apiKey:       "key",
			maxPerWindow: 1,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{})
			},
		})

		first := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})
		require.Equal(t, http.StatusOK, first.Code)

		second := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})
		assert.Equal(t, http.StatusTooManyRequests, second.Code)

		body := decode(t, second)
		assert.Equal(t, "Rate limit exceeded. Please wait a minute before trying again.", body["error"])
		assert.Greater(t, body["retryAfter"], float64(0))
	})

	t.Run("reports daily exhaustion with the reset hint", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{
			apiKey:       "key",
			maxPerWindow: 10,
			dailyLimit:   1,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{})
			},
		})

		first := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})
		require.Equal(t, http.StatusOK, first.Code)

		second := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})
		assert.Equal(t, http.StatusTooManyRequests, second.Code)

		body := decode(t, second)
		assert.Equal(t, "Daily limit reached. Please try again tomorrow.", body["error"])
		assert.Equal(t, float64(1), body["dailyLimit"])
		assert.Equal(t, "midnight UTC", body["resetTime"])
	})

	t.Run("maps a missing credential to a flat 500", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{apiKey: ""})

		w := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "API key not configured", decode(t, w)["error"])
	})

	t.Run("passes the upstream error message through", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{
			apiKey: "key",
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			},
		})

		w := doJSON(server.Router(), http.MethodPost, "/api/analyze", gin.H{"messages": []gin.H{}})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "overloaded", decode(t, w)["error"])
	})
}

func TestCORS(t *testing.T) {
	server, _ := newTestServer(t, serverOptions{apiKey: "key"})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestUsage(t *testing.T) {
	server, _ := newTestServer(t, serverOptions{apiKey: "key", maxPerWindow: 5, dailyLimit: 50})

	w := doJSON(server.Router(), http.MethodGet, "/api/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(50), body["daily_limit"])
	rateLimit, ok := body["rate_limit"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5), rateLimit["requests_per_minute"])
	assert.Equal(t, float64(60), rateLimit["window_seconds"])
}

func TestHistoryEndpoints(t *testing.T) {
	t.Run("save then list round-trips", func(t *testing.T) {
		server, store := newTestServer(t, serverOptions{apiKey: "key"})

		analysis := gin.H{"outcome": "Victory", "battleType": "PVP"}
		saved := doJSON(server.Router(), http.MethodPost, "/api/history", gin.H{"analysis": analysis, "screenshot_count": 2})
		require.Equal(t, http.StatusOK, saved.Code)
		require.Len(t, store.entries, 1)

		listed := doJSON(server.Router(), http.MethodGet, "/api/history", nil)
		require.Equal(t, http.StatusOK, listed.Code)

		body := decode(t, listed)
		assert.Equal(t, true, body["success"])
		entries, ok := body["data"].([]interface{})
		require.True(t, ok)
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]interface{})
		assert.Equal(t, "Victory", entry["outcome"])
		assert.NotEmpty(t, entry["id"])
	})

	t.Run("delete of an unknown battle is a 404", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{apiKey: "key"})

		w := doJSON(server.Router(), http.MethodDelete, "/api/history/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("clear reports the removed count", func(t *testing.T) {
		server, store := newTestServer(t, serverOptions{apiKey: "key"})
		store.entries["a"] = &models.HistoryEntry{ID: "a"}
		store.entries["b"] = &models.HistoryEntry{ID: "b"}

		w := doJSON(server.Router(), http.MethodDelete, "/api/history", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, float64(2), data["removed"])
	})

	t.Run("aggregated stats are exposed", func(t *testing.T) {
		server, store := newTestServer(t, serverOptions{apiKey: "key"})
		store.entries["a"] = &models.HistoryEntry{ID: "a", Outcome: "Victory", DamageDealt: 100}
		store.entries["b"] = &models.HistoryEntry{ID: "b", Outcome: "Defeat", DamageDealt: 50}

		w := doJSON(server.Router(), http.MethodGet, "/api/history/stats", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, float64(2), data["total_battles"])
		assert.Equal(t, float64(50), data["win_rate"])
	})
}

func TestComputeStats(t *testing.T) {
	server, _ := newTestServer(t, serverOptions{apiKey: "key"})

	analysis := gin.H{
		"casualties": gin.H{
			"player":   gin.H{"killed": 1000},
			"opponent": gin.H{"killed": 2500},
		},
		"damage": gin.H{
			"dealt":    gin.H{"total": 1500000},
			"received": gin.H{"total": 600000},
		},
	}
	w := doJSON(server.Router(), http.MethodPost, "/api/stats", gin.H{"analysis": analysis})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	statsBody := data["stats"].(map[string]interface{})
	gradeBody := data["grade"].(map[string]interface{})
	assert.Equal(t, 2.5, statsBody["killRatio"])
	assert.Equal(t, 2.5, statsBody["damageEfficiency"])
	assert.Equal(t, "B", gradeBody["grade"], "no troop data caps the score at 60")
}

func TestInsightsEndpoint(t *testing.T) {
	server, store := newTestServer(t, serverOptions{apiKey: "key"})
	store.entries["a"] = &models.HistoryEntry{ID: "a", Outcome: "Victory", Date: time.Now()}

	w := doJSON(server.Router(), http.MethodPost, "/api/insights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	performance := data["overallPerformance"].(map[string]interface{})
	assert.Equal(t, float64(100), performance["winRate"])
	assert.Equal(t, models.TrendStable, performance["trend"])
}

func TestHealth(t *testing.T) {
	t.Run("reports ok with a reachable store", func(t *testing.T) {
		server, _ := newTestServer(t, serverOptions{apiKey: "key"})

		w := doJSON(server.Router(), http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "ok", data["status"])
	})

	t.Run("degrades when the store is unreachable", func(t *testing.T) {
		store := newFakeStore()
		store.failing = true
		server, _ := newTestServer(t, serverOptions{apiKey: "key", store: store})

		w := doJSON(server.Router(), http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decode(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "degraded", data["status"])
	})
}
