package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncPayloadFieldNames(t *testing.T) {
	battery := 82
	steps := 9000
	snap := &HealthSnapshot{
		Window: TimeWindow{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Activity:    &ActivityData{Steps: &steps},
		BodyBattery: &battery,
	}

	raw, err := json.Marshal(NewSyncPayload("device-1", snap))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{
		"device_id", "synced_at", "period_from", "period_to",
		"activity", "sleep", "workouts", "mood", "mindfulness", "body_battery",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("payload missing field %q", key)
		}
	}
	for _, key := range []string{"heart", "body", "vitals"} {
		if _, ok := m[key]; ok {
			t.Errorf("nil category %q should be omitted", key)
		}
	}
	if string(m["sleep"]) != "[]" {
		t.Errorf("empty sleep should serialize as [], got %s", m["sleep"])
	}
}

func TestSyncPayloadTimestampsRFC3339(t *testing.T) {
	snap := &HealthSnapshot{
		Window: TimeWindow{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	raw, err := json.Marshal(NewSyncPayload("device-1", snap))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		PeriodFrom string `json:"period_from"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, decoded.PeriodFrom); err != nil {
		t.Errorf("period_from %q is not RFC 3339: %v", decoded.PeriodFrom, err)
	}
}

func TestTimeWindowValid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		window TimeWindow
		want   bool
	}{
		{"forward", TimeWindow{Start: now, End: now.Add(time.Hour)}, true},
		{"zero-length", TimeWindow{Start: now, End: now}, false},
		{"inverted", TimeWindow{Start: now.Add(time.Hour), End: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSleepSessionEfficiency(t *testing.T) {
	start := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	s := &SleepSession{
		Start: start,
		End:   start.Add(8 * time.Hour),
		Stages: []SleepStage{
			{Stage: StageDeep, DurationMin: 90},
			{Stage: StageCore, DurationMin: 270},
			{Stage: StageREM, DurationMin: 72},
			{Stage: StageAwake, DurationMin: 48},
		},
	}
	if got := s.AsleepMinutes(); got != 432 {
		t.Errorf("AsleepMinutes() = %v, want 432", got)
	}
	if got := s.EfficiencyPct(); got != 90 {
		t.Errorf("EfficiencyPct() = %v, want 90", got)
	}
}
