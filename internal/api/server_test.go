package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbeezley/myk9q-scoring/internal/catalog"
	"github.com/rbeezley/myk9q-scoring/internal/config"
	"github.com/rbeezley/myk9q-scoring/internal/models"
	"github.com/rbeezley/myk9q-scoring/internal/realtime"
	"github.com/rbeezley/myk9q-scoring/internal/scoring"
	"github.com/rbeezley/myk9q-scoring/internal/storage"
	"github.com/rbeezley/myk9q-scoring/internal/timing"
)

const (
	judgeKey  = "sk_judge_0123456789"
	viewerKey = "sk_viewer_0123456789"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testServer struct {
	t    *testing.T
	srv  *Server
	repo *storage.MemoryRepository
	hub  *realtime.Hub
	now  time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := storage.NewMemoryRepository()
	repo.AddClient(&models.ApiClient{ID: 1, Name: "judge", ApiKey: judgeKey, IsActive: true, Permissions: []string{"*"}})
	repo.AddClient(&models.ApiClient{ID: 2, Name: "viewer", ApiKey: viewerKey, IsActive: true, Permissions: []string{"timing:read", "classes:read"}})
	repo.AddClient(&models.ApiClient{ID: 3, Name: "retired", ApiKey: "sk_retired_0000000", IsActive: false, Permissions: []string{"*"}})
	repo.AddClass(&models.Class{
		ID:         "c1",
		TrialID:    "t1",
		Element:    "Buried",
		Level:      "Excellent",
		AreaCount:  2,
		TimeLimits: timing.AreaLimits{"03:00.00", "03:00.00", ""},
	})
	repo.AddEntry(&models.Entry{ID: "e1", ClassID: "c1", Armband: 12, Handler: "Sam", DogName: "Juno"})

	loader := catalog.NewLoader()
	require.NoError(t, loader.LoadFromFile("../../catalog/akc-scent-work.yaml"))

	ts := &testServer{t: t, repo: repo, now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	ts.hub = realtime.NewHub(realtime.HubConfig{})
	svc := scoring.NewService(repo, scoring.NewMemoryStore(), loader,
		scoring.WithPublisher(ts.hub),
		scoring.WithClock(func() time.Time { return ts.now }),
	)
	ts.srv = NewServer(config.ServerConfig{RequestTimeout: 5 * time.Second}, repo, svc, loader, ts.hub)
	return ts
}

func (ts *testServer) do(method, path, key string, body any) (int, envelope) {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = ts.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	ready := decodeData[map[string]any](t, env)
	assert.Equal(t, "ready", ready["status"])
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		key    string
		path   string
		status int
		code   string
	}{
		{"missing key", "", "/api/v1/classes", http.StatusUnauthorized, "missing_api_key"},
		{"unknown key", "sk_nope_000000000", "/api/v1/classes", http.StatusUnauthorized, "invalid_api_key"},
		{"inactive client", "sk_retired_0000000", "/api/v1/classes", http.StatusUnauthorized, "client_inactive"},
		{"missing permission", viewerKey, "/api/v1/sessions/x", http.StatusForbidden, "permission_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := ts.do(http.MethodGet, tt.path, tt.key, nil)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classes", nil)
	req.Header.Set("X-API-Key", viewerKey)
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTimingEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(http.MethodPost, "/api/v1/timing/parse", viewerKey, parseRequest{Text: "01:30.25"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 90250, decodeData[map[string]int](t, env)["ms"])

	code, env = ts.do(http.MethodPost, "/api/v1/timing/parse", viewerKey, parseRequest{Text: "1:30"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_time", env.Error.Code)

	code, env = ts.do(http.MethodPost, "/api/v1/timing/format", viewerKey, formatRequest{Ms: 3_723_450, IncludeHours: true, IncludeHundredths: true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "01:02:03.45", decodeData[map[string]string](t, env)["text"])

	code, env = ts.do(http.MethodPost, "/api/v1/timing/areas", viewerKey, areasRequest{AreaCount: 3, Element: "Interior", Level: "Master"})
	require.Equal(t, http.StatusOK, code)
	areas := decodeData[struct {
		Active [3]bool `json:"active"`
		Count  int     `json:"count"`
	}](t, env)
	assert.Equal(t, [3]bool{true, false, false}, areas.Active)
	assert.Equal(t, 1, areas.Count)

	code, env = ts.do(http.MethodPost, "/api/v1/timing/areas", viewerKey, areasRequest{AreaCount: 5, Element: "Interior", Level: "Master"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_configuration", env.Error.Code)

	code, env = ts.do(http.MethodPost, "/api/v1/timing/preset", viewerKey, presetRequest{
		AreaCount: 2,
		Areas:     timing.AreaValues{"01:00.00", "", ""},
		Limits:    timing.AreaLimits{"02:00.00", "03:30.00", ""},
	})
	require.Equal(t, http.StatusOK, code)
	preset := decodeData[map[string]any](t, env)
	assert.EqualValues(t, 2, preset["current_area"])
	assert.EqualValues(t, 210_000, preset["preset_ms"])
	assert.Equal(t, "03:30.00", preset["preset"])

	code, _ = ts.do(http.MethodPost, "/api/v1/timing/preset", viewerKey, presetRequest{AreaCount: 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = ts.do(http.MethodPost, "/api/v1/timing/validate", viewerKey, validateRequest{Text: "02:10.00", Limit: "02:00.00"})
	require.Equal(t, http.StatusOK, code)
	v := decodeData[struct {
		Valid bool      `json:"valid"`
		Error *apiError `json:"error"`
	}](t, env)
	assert.False(t, v.Valid)
	require.NotNil(t, v.Error)
	assert.Equal(t, "over_time_limit", v.Error.Code)
}

func TestClassEndpoints(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(http.MethodGet, "/api/v1/classes/c1", viewerKey, nil)
	require.Equal(t, http.StatusOK, code)
	class := decodeData[struct {
		ID          string                 `json:"id"`
		ActiveAreas [3]bool                `json:"active_areas"`
		Defaults    *catalog.ClassDefaults `json:"defaults"`
	}](t, env)
	assert.Equal(t, "c1", class.ID)
	assert.Equal(t, [3]bool{true, true, false}, class.ActiveAreas)
	require.NotNil(t, class.Defaults)
	assert.Equal(t, "AKC", class.Defaults.Organization)

	code, env = ts.do(http.MethodGet, "/api/v1/classes/c1/entries", viewerKey, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, decodeData[map[string]any](t, env)["total"])

	code, _ = ts.do(http.MethodGet, "/api/v1/classes/missing", viewerKey, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = ts.do(http.MethodGet, "/api/v1/catalog", viewerKey, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 20, decodeData[map[string]any](t, env)["total"])
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	sub := ts.hub.Subscribe("c1")
	defer sub.Close()

	code, env := ts.do(http.MethodPost, "/api/v1/entries/e1/sessions", judgeKey, nil)
	require.Equal(t, http.StatusCreated, code, string(env.Data))
	sess := decodeData[scoring.SessionView](t, env)
	assert.Equal(t, scoring.StateIdle, sess.State)
	assert.Equal(t, 180_000, sess.Countdown.RemainingMs)
	id := sess.ID

	code, _ = ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/stop", judgeKey, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/start", judgeKey, nil)
	require.Equal(t, http.StatusOK, code)

	ts.now = ts.now.Add(150 * time.Second)
	code, env = ts.do(http.MethodGet, "/api/v1/sessions/"+id, judgeKey, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, timing.PhaseWarning, decodeData[scoring.SessionView](t, env).Countdown.Phase)

	code, _ = ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/stop", judgeKey, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/submit", judgeKey, models.Qualified())
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "incomplete", env.Error.Code)

	code, env = ts.do(http.MethodPut, "/api/v1/sessions/"+id+"/areas/2", judgeKey, areaTimeRequest{Time: "03:10.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "over_time_limit", env.Error.Code)

	code, env = ts.do(http.MethodPut, "/api/v1/sessions/"+id+"/areas/3", judgeKey, areaTimeRequest{Time: "01:00.00"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_area", env.Error.Code)

	code, _ = ts.do(http.MethodPut, "/api/v1/sessions/"+id+"/areas/2", judgeKey, areaTimeRequest{Time: "02:05.50"})
	require.Equal(t, http.StatusOK, code)

	code, env = ts.do(http.MethodPost, "/api/v1/sessions/"+id+"/submit", judgeKey, models.Qualified())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, scoring.StateSubmitted, decodeData[scoring.SessionView](t, env).State)

	entry, err := ts.repo.GetEntry(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, entry.IsScored())
	assert.Equal(t, timing.AreaValues{"02:30.00", "02:05.50", ""}, entry.AreaTimes)

	code, env = ts.do(http.MethodPost, "/api/v1/entries/e1/sessions", judgeKey, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_scored", env.Error.Code)

	var types []string
	for len(sub.C) > 0 {
		var ev realtime.Event
		require.NoError(t, json.Unmarshal(<-sub.C, &ev))
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		realtime.EventSessionCreated,
		realtime.EventTimerStarted,
		realtime.EventTimerStopped,
		realtime.EventAreaUpdated,
		realtime.EventScoreSubmitted,
	}, types)

	code, _ = ts.do(http.MethodDelete, "/api/v1/sessions/"+id, judgeKey, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = ts.do(http.MethodGet, "/api/v1/sessions/"+id, judgeKey, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
