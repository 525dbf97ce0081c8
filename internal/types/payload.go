package types

import "time"

// SyncPayload is the JSON body pushed to the remote server. Field names
// are snake_case and timestamps serialize as RFC 3339, matching the
// server's ingest contract. A payload is built fresh for each sync
// attempt and discarded after the send.
type SyncPayload struct {
	DeviceID    string               `json:"device_id"`
	SyncedAt    time.Time            `json:"synced_at"`
	PeriodFrom  time.Time            `json:"period_from"`
	PeriodTo    time.Time            `json:"period_to"`
	Activity    *ActivityData        `json:"activity,omitempty"`
	Heart       *HeartData           `json:"heart,omitempty"`
	Sleep       []SleepSession       `json:"sleep"`
	Workouts    []WorkoutSession     `json:"workouts"`
	Mood        []MoodEntry          `json:"mood"`
	Body        *BodyData            `json:"body,omitempty"`
	Vitals      *VitalsData          `json:"vitals,omitempty"`
	Mindfulness []MindfulnessSession `json:"mindfulness"`
	BodyBattery *int                 `json:"body_battery,omitempty"`
}

// NewSyncPayload serializes a snapshot into a payload for the given
// device. Empty category slices are kept non-nil so they serialize as
// [] rather than null.
func NewSyncPayload(deviceID string, snap *HealthSnapshot) *SyncPayload {
	p := &SyncPayload{
		DeviceID:    deviceID,
		SyncedAt:    time.Now().UTC(),
		PeriodFrom:  snap.Window.Start,
		PeriodTo:    snap.Window.End,
		Activity:    snap.Activity,
		Heart:       snap.Heart,
		Sleep:       snap.SleepSessions,
		Workouts:    snap.Workouts,
		Mood:        snap.Mood,
		Body:        snap.Body,
		Vitals:      snap.Vitals,
		Mindfulness: snap.Mindfulness,
		BodyBattery: snap.BodyBattery,
	}
	if p.Sleep == nil {
		p.Sleep = []SleepSession{}
	}
	if p.Workouts == nil {
		p.Workouts = []WorkoutSession{}
	}
	if p.Mood == nil {
		p.Mood = []MoodEntry{}
	}
	if p.Mindfulness == nil {
		p.Mindfulness = []MindfulnessSession{}
	}
	return p
}
