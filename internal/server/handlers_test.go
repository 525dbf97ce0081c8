package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/database"
	"github.com/healthbridge/healthbridge/internal/types"
	"github.com/healthbridge/healthbridge/pkg/config"
)

type fakeStore struct {
	payload   *types.SyncPayload
	syncID    uint
	syncErr   error
	summaries []database.DailySummary
	latest    *database.DailySummary
	workouts  []database.WorkoutRecord
	mood      []database.MoodRecord
	sleep     []database.SleepRecord
	queryErr  error
	lastDays  int
}

func (f *fakeStore) StoreSync(payload *types.SyncPayload) (uint, error) {
	f.payload = payload
	return f.syncID, f.syncErr
}

func (f *fakeStore) DailySummaries(days int) ([]database.DailySummary, error) {
	f.lastDays = days
	return f.summaries, f.queryErr
}

func (f *fakeStore) LatestSummary() (*database.DailySummary, error) {
	return f.latest, f.queryErr
}

func (f *fakeStore) WorkoutsSince(days int) ([]database.WorkoutRecord, error) {
	f.lastDays = days
	return f.workouts, f.queryErr
}

func (f *fakeStore) MoodSince(days int) ([]database.MoodRecord, error) {
	f.lastDays = days
	return f.mood, f.queryErr
}

func (f *fakeStore) SleepSince(days int) ([]database.SleepRecord, error) {
	f.lastDays = days
	return f.sleep, f.queryErr
}

func newTestRouter(store HealthStore) *mux.Router {
	c := &Controller{
		serverConfig: config.ServerData{APIKey: "secret"},
		logger:       zap.NewNop().Sugar(),
	}
	c.handlers = NewHandlers(store, c.logger)
	return c.setupRouter()
}

func doRequest(router *mux.Router, method, path, apiKey string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const syncBody = `{
	"device_id": "device-1",
	"synced_at": "2026-03-14T18:00:00Z",
	"period_from": "2026-03-14T00:00:00Z",
	"period_to": "2026-03-14T18:00:00Z",
	"sleep": [],
	"workouts": [],
	"mood": [],
	"mindfulness": []
}`

func TestSyncStoresPayloadAndAcknowledges(t *testing.T) {
	store := &fakeStore{syncID: 42}
	router := newTestRouter(store)

	w := doRequest(router, "POST", "/api/health/sync", "secret", strings.NewReader(syncBody))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sync_id":42}`, w.Body.String())
	require.NotNil(t, store.payload)
	assert.Equal(t, "device-1", store.payload.DeviceID)
}

func TestSyncRejectsInvalidJSON(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	w := doRequest(router, "POST", "/api/health/sync", "secret", strings.NewReader(`{"device_id": `))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncRequiresDeviceID(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(store)

	w := doRequest(router, "POST", "/api/health/sync", "secret", strings.NewReader(`{"device_id": ""}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.payload)
}

func TestSyncStorageFailure(t *testing.T) {
	store := &fakeStore{syncErr: errors.New("connection refused")}
	router := newTestRouter(store)

	w := doRequest(router, "POST", "/api/health/sync", "secret", strings.NewReader(syncBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAPIRoutesRequireKey(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	w := doRequest(router, "POST", "/api/health/sync", "", strings.NewReader(syncBody))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "GET", "/api/health/summary", "wrong-key", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPingSkipsAuth(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	w := doRequest(router, "GET", "/api/health/ping", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSummaryDefaultsToSevenDays(t *testing.T) {
	store := &fakeStore{summaries: []database.DailySummary{}}
	router := newTestRouter(store)

	w := doRequest(router, "GET", "/api/health/summary", "secret", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, store.lastDays)
}

func TestSummaryValidatesDaysRange(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	for _, days := range []string{"0", "91", "-3", "abc"} {
		w := doRequest(router, "GET", "/api/health/summary?days="+days, "secret", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "days=%s should be rejected", days)
	}
}

func TestSummaryResponseShape(t *testing.T) {
	steps := 8200
	store := &fakeStore{summaries: []database.DailySummary{
		{Date: "2026-03-14", Steps: &steps},
		{Date: "2026-03-13"},
	}}
	router := newTestRouter(store)

	w := doRequest(router, "GET", "/api/health/summary?days=14", "secret", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 14, store.lastDays)

	var resp struct {
		Days      int `json:"days"`
		Summaries []struct {
			Date  string `json:"date"`
			Steps *int   `json:"steps"`
		} `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 14, resp.Days)
	require.Len(t, resp.Summaries, 2)
	assert.Equal(t, "2026-03-14", resp.Summaries[0].Date)
	require.NotNil(t, resp.Summaries[0].Steps)
	assert.Equal(t, 8200, *resp.Summaries[0].Steps)
	assert.Nil(t, resp.Summaries[1].Steps)
}

func TestLatestNoData(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	w := doRequest(router, "GET", "/api/health/latest", "secret", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"no_data"}`, w.Body.String())
}

func TestLatestReturnsBareSummary(t *testing.T) {
	rhr := 52.0
	store := &fakeStore{latest: &database.DailySummary{Date: "2026-03-14", RestingHR: &rhr}}
	router := newTestRouter(store)

	w := doRequest(router, "GET", "/api/health/latest", "secret", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-14", resp["date"])
	assert.Equal(t, 52.0, resp["resting_hr"])
	assert.NotContains(t, resp, "status")
}

func TestMoodSerializesLabelArrays(t *testing.T) {
	rec := database.MoodRecord{Date: "2026-03-14", Kind: "momentary_emotion", Valence: 0.5}
	require.NoError(t, rec.Labels.Set([]byte(`["calm","content"]`)))
	require.NoError(t, rec.Associations.Set([]byte(`["weather"]`)))

	store := &fakeStore{mood: []database.MoodRecord{rec}}
	router := newTestRouter(store)

	w := doRequest(router, "GET", "/api/health/mood?days=30", "secret", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Days int `json:"days"`
		Mood []struct {
			Kind    string   `json:"kind"`
			Valence float64  `json:"valence"`
			Labels  []string `json:"labels"`
		} `json:"mood"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Days)
	require.Len(t, resp.Mood, 1)
	assert.Equal(t, []string{"calm", "content"}, resp.Mood[0].Labels)
}

func TestQueryStorageFailure(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("database down")}
	router := newTestRouter(store)

	for _, path := range []string{"/api/health/summary", "/api/health/latest", "/api/health/workouts", "/api/health/mood", "/api/health/sleep"} {
		w := doRequest(router, "GET", path, "secret", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "path %s", path)
	}
}
