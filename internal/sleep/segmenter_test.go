package sleep

import (
	"reflect"
	"testing"
	"time"

	"github.com/healthbridge/healthbridge/internal/types"
)

var night = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func ev(kind string, startMin, endMin int) types.CategoryEvent {
	return types.CategoryEvent{
		Kind:  kind,
		Start: night.Add(time.Duration(startMin) * time.Minute),
		End:   night.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestSegmentGapRule(t *testing.T) {
	tests := []struct {
		name         string
		events       []types.CategoryEvent
		wantSessions int
		wantSpanMin  float64
	}{
		{
			name:         "35 minute gap splits sessions",
			events:       []types.CategoryEvent{ev(types.StageDeep, 0, 30), ev(types.StageREM, 65, 90)},
			wantSessions: 2,
			wantSpanMin:  30,
		},
		{
			name:         "15 minute gap keeps one session",
			events:       []types.CategoryEvent{ev(types.StageDeep, 0, 30), ev(types.StageREM, 45, 70)},
			wantSessions: 1,
			wantSpanMin:  70,
		},
		{
			name:         "exactly 30 minute gap keeps one session",
			events:       []types.CategoryEvent{ev(types.StageDeep, 0, 30), ev(types.StageCore, 60, 90)},
			wantSessions: 1,
			wantSpanMin:  90,
		},
		{
			name:         "zero gap merges regardless of stage kind",
			events:       []types.CategoryEvent{ev(types.StageAwake, 0, 10), ev(types.StageDeep, 10, 60)},
			wantSessions: 1,
			wantSpanMin:  60,
		},
		{
			name:         "overlapping events merge",
			events:       []types.CategoryEvent{ev(types.StageCore, 0, 40), ev(types.StageDeep, 30, 80)},
			wantSessions: 1,
			wantSpanMin:  80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.events)
			if len(got) != tt.wantSessions {
				t.Fatalf("got %d sessions, want %d", len(got), tt.wantSessions)
			}
			if got[0].TotalDurationMin != tt.wantSpanMin {
				t.Errorf("first session span = %v min, want %v", got[0].TotalDurationMin, tt.wantSpanMin)
			}
		})
	}
}

func TestSegmentExcludesInBed(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageInBed, 0, 480),
		ev(types.StageInBed, 500, 520),
	}
	if got := Segment(events); len(got) != 0 {
		t.Errorf("inBed-only input should yield zero sessions, got %d", len(got))
	}
}

func TestSegmentUnknownOnly(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageUnknown, 0, 100),
		ev(types.StageUnknown, 110, 200),
	}
	if got := Segment(events); len(got) != 0 {
		t.Errorf("unknown-only input should yield zero sessions, got %d", len(got))
	}
}

func TestSegmentRetainsUnknownInMixedSession(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageUnknown, 0, 20),
		ev(types.StageDeep, 20, 80),
	}
	got := Segment(events)
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if len(got[0].Stages) != 2 {
		t.Errorf("unknown stage should be retained, got %d stages", len(got[0].Stages))
	}
}

func TestSegmentFlushesTrailingSession(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageDeep, 0, 60),
		ev(types.StageCore, 120, 180),
	}
	got := Segment(events)
	if len(got) != 2 {
		t.Fatalf("trailing session not flushed: got %d sessions", len(got))
	}
	if got[1].Start != night.Add(120*time.Minute) {
		t.Errorf("second session start = %v", got[1].Start)
	}
}

func TestSegmentIdempotent(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageCore, 0, 90),
		ev(types.StageDeep, 90, 150),
		ev(types.StageREM, 150, 200),
		ev(types.StageCore, 245, 300),
		ev(types.StageInBed, 0, 310),
	}
	first := Segment(events)
	second := Segment(events)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("segmentation is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSegmentUnsortedInput(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageCore, 100, 160),
		ev(types.StageDeep, 0, 60),
		ev(types.StageREM, 60, 100),
	}
	got := Segment(events)
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if got[0].Start != night || got[0].TotalDurationMin != 160 {
		t.Errorf("session = %v..%v (%v min)", got[0].Start, got[0].End, got[0].TotalDurationMin)
	}
}

func TestSegmentInBedDuration(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageInBed, 0, 500),
		ev(types.StageDeep, 10, 100),
		ev(types.StageCore, 100, 460),
	}
	got := Segment(events)
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if got[0].InBedDurationMin == nil {
		t.Fatal("InBedDurationMin should be populated from overlapping inBed events")
	}
	if *got[0].InBedDurationMin != 450 {
		t.Errorf("InBedDurationMin = %v, want 450", *got[0].InBedDurationMin)
	}
}

func TestSegmentStageAccounting(t *testing.T) {
	events := []types.CategoryEvent{
		ev(types.StageDeep, 0, 60),
		ev(types.StageREM, 60, 160),
		ev(types.StageCore, 160, 430),
		ev(types.StageAwake, 430, 450),
	}
	got := Segment(events)
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	s := got[0]
	if s.TotalDurationMin != 450 {
		t.Errorf("TotalDurationMin = %v, want 450", s.TotalDurationMin)
	}
	if s.AsleepMinutes() != 430 {
		t.Errorf("AsleepMinutes() = %v, want 430", s.AsleepMinutes())
	}
	if s.StageMinutes(types.StageDeep) != 60 {
		t.Errorf("deep minutes = %v, want 60", s.StageMinutes(types.StageDeep))
	}
}
