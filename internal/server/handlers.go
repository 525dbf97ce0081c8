package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/database"
	"github.com/healthbridge/healthbridge/internal/types"
	"github.com/healthbridge/healthbridge/pkg/responseformat"
)

const (
	defaultQueryDays = 7
	maxQueryDays     = 90
)

// HealthStore is the storage surface the handlers use. *database.Client
// satisfies it; tests substitute a fake.
type HealthStore interface {
	StoreSync(payload *types.SyncPayload) (uint, error)
	DailySummaries(days int) ([]database.DailySummary, error)
	LatestSummary() (*database.DailySummary, error)
	WorkoutsSince(days int) ([]database.WorkoutRecord, error)
	MoodSince(days int) ([]database.MoodRecord, error)
	SleepSince(days int) ([]database.SleepRecord, error)
}

// Handlers contains all HTTP handlers for the receiver API
type Handlers struct {
	store     HealthStore
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewHandlers creates a new handlers instance
func NewHandlers(store HealthStore, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{
		store:     store,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}
}

type syncResponse struct {
	Status string `json:"status"`
	SyncID uint   `json:"sync_id"`
}

type summaryResponse struct {
	Days      int                     `json:"days"`
	Summaries []database.DailySummary `json:"summaries"`
}

type workoutsResponse struct {
	Days     int                      `json:"days"`
	Workouts []database.WorkoutRecord `json:"workouts"`
}

type moodResponse struct {
	Days int                   `json:"days"`
	Mood []database.MoodRecord `json:"mood"`
}

type sleepResponse struct {
	Days  int                    `json:"days"`
	Sleep []database.SleepRecord `json:"sleep"`
}

// SyncHealthData ingests one pushed sync payload and acknowledges it
// with the stored sync log id
func (h *Handlers) SyncHealthData(w http.ResponseWriter, req *http.Request) {
	var payload types.SyncPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		h.logger.Errorf("invalid sync payload: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		h.formatter.WriteResponse(w, req, map[string]string{"error": "invalid sync payload"}, nil)
		return
	}

	if payload.DeviceID == "" {
		w.WriteHeader(http.StatusBadRequest)
		h.formatter.WriteResponse(w, req, map[string]string{"error": "device_id is required"}, nil)
		return
	}

	syncID, err := h.store.StoreSync(&payload)
	if err != nil {
		h.logger.Errorf("error storing sync from device %s: %v", payload.DeviceID, err)
		w.WriteHeader(http.StatusInternalServerError)
		h.formatter.WriteResponse(w, req, map[string]string{"error": "error storing sync payload"}, nil)
		return
	}

	h.formatter.WriteResponse(w, req, syncResponse{Status: "ok", SyncID: syncID}, nil)
}

// GetSummary returns the merged daily summaries for the last N days
func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	days, ok := h.daysParam(w, req)
	if !ok {
		return
	}

	summaries, err := h.store.DailySummaries(days)
	if err != nil {
		h.storageError(w, req, err)
		return
	}

	h.writeRaw(w, req, summaryResponse{Days: days, Summaries: summaries})
}

// GetLatest returns the most recent daily summary row
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	summary, err := h.store.LatestSummary()
	if err != nil {
		h.storageError(w, req, err)
		return
	}

	if summary == nil {
		h.formatter.WriteResponse(w, req, map[string]string{"status": "no_data"}, nil)
		return
	}

	h.writeRaw(w, req, summary)
}

// ListWorkouts returns workouts from the last N days
func (h *Handlers) ListWorkouts(w http.ResponseWriter, req *http.Request) {
	days, ok := h.daysParam(w, req)
	if !ok {
		return
	}

	workouts, err := h.store.WorkoutsSince(days)
	if err != nil {
		h.storageError(w, req, err)
		return
	}

	h.writeRaw(w, req, workoutsResponse{Days: days, Workouts: workouts})
}

// ListMood returns mood entries from the last N days
func (h *Handlers) ListMood(w http.ResponseWriter, req *http.Request) {
	days, ok := h.daysParam(w, req)
	if !ok {
		return
	}

	mood, err := h.store.MoodSince(days)
	if err != nil {
		h.storageError(w, req, err)
		return
	}

	h.writeRaw(w, req, moodResponse{Days: days, Mood: mood})
}

// ListSleep returns sleep sessions from the last N days
func (h *Handlers) ListSleep(w http.ResponseWriter, req *http.Request) {
	days, ok := h.daysParam(w, req)
	if !ok {
		return
	}

	sleep, err := h.store.SleepSince(days)
	if err != nil {
		h.storageError(w, req, err)
		return
	}

	h.writeRaw(w, req, sleepResponse{Days: days, Sleep: sleep})
}

// Ping is the unauthenticated health check
func (h *Handlers) Ping(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, nil)
}

// daysParam parses and validates the days query parameter. When ok is
// false the error response has already been written.
func (h *Handlers) daysParam(w http.ResponseWriter, req *http.Request) (int, bool) {
	daysStr := req.URL.Query().Get("days")
	if daysStr == "" {
		return defaultQueryDays, true
	}

	days, err := strconv.Atoi(daysStr)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.formatter.WriteResponse(w, req, map[string]string{"error": "days must be a number"}, nil)
		return 0, false
	}

	if days < 1 || days > maxQueryDays {
		w.WriteHeader(http.StatusBadRequest)
		h.formatter.WriteResponse(w, req, map[string]string{"error": fmt.Sprintf("days must be between 1 and %d", maxQueryDays)}, nil)
		return 0, false
	}

	return days, true
}

// writeRaw marshals the response once and hands the raw JSON to the
// formatter. Rows carry jsonb columns whose bytes are already JSON, so
// marshaling the structs keeps them inline and the formatter re-decodes
// when MessagePack is requested.
func (h *Handlers) writeRaw(w http.ResponseWriter, req *http.Request, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Errorf("error encoding response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		h.formatter.WriteResponse(w, req, map[string]string{"error": "error encoding response"}, nil)
		return
	}

	if err := h.formatter.WriteRawJSON(w, req, raw); err != nil {
		h.logger.Errorf("error writing response: %v", err)
	}
}

func (h *Handlers) storageError(w http.ResponseWriter, req *http.Request, err error) {
	h.logger.Errorf("storage query failed: %v", err)
	w.WriteHeader(http.StatusInternalServerError)
	h.formatter.WriteResponse(w, req, map[string]string{"error": "error querying health data"}, nil)
}
