package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/healthbridge/healthbridge/internal/serverapi"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func fullSummary(date string) serverapi.DailySummary {
	return serverapi.DailySummary{
		Date:             date,
		Steps:            iptr(9200),
		DistanceKm:       fptr(6.8),
		ActiveCalories:   fptr(480),
		ExerciseMinutes:  fptr(38),
		FlightsClimbed:   iptr(9),
		RestingHR:        fptr(52),
		AvgHR:            fptr(71),
		HRVSDNN:          fptr(64),
		SleepDurationMin: fptr(432),
		DeepSleepMin:     fptr(81),
		RemSleepMin:      fptr(93),
		CoreSleepMin:     fptr(228),
		AwakeMin:         fptr(30),
		WeightKg:         fptr(71.4),
		BodyFatPct:       fptr(17.2),
		BodyBattery:      iptr(78),
		MoodAvgValence:   fptr(0.45),
		WorkoutCount:     iptr(1),
		BloodOxygenPct:   fptr(97.6),
		RespiratoryRate:  fptr(14.2),
	}
}

func TestRenderReportNoData(t *testing.T) {
	out := renderReport(&reportData{Days: 7})
	assert.Equal(t, "No health data available yet. Waiting for first sync from the device.\n", out)
}

func TestRenderReportSections(t *testing.T) {
	start := time.Date(2026, 3, 13, 23, 10, 0, 0, time.UTC)
	data := &reportData{
		Days: 7,
		Summaries: []serverapi.DailySummary{
			fullSummary("2026-03-14"),
			fullSummary("2026-03-13"),
			fullSummary("2026-03-12"),
		},
		Workouts: []serverapi.WorkoutRow{
			{
				Date:           "2026-03-14",
				WorkoutType:    "running",
				DurationMin:    fptr(42),
				DistanceKm:     fptr(7.1),
				ActiveCalories: fptr(310),
			},
		},
		Sleep: []serverapi.SleepRow{
			{Date: "2026-03-14", StartTime: start, EndTime: start.Add(7*time.Hour + 30*time.Minute)},
		},
		Mood: []serverapi.MoodRow{
			{Date: "2026-03-14", Valence: 0.45},
		},
	}

	out := renderReport(data)

	assert.Contains(t, out, "# Health Report — 2026-03-14")
	assert.Contains(t, out, "## 🟢 Body Battery: 78/100")
	assert.Contains(t, out, "## 🏃 Activity")
	assert.Contains(t, out, "- Steps: **9200** →")
	assert.Contains(t, out, "- Distance: 6.8 km")
	assert.Contains(t, out, "## ❤️ Heart")
	assert.Contains(t, out, "- Resting HR: **52 bpm** →")
	assert.Contains(t, out, "- HRV (SDNN): **64 ms** →")
	assert.Contains(t, out, "## 😴 Sleep")
	assert.Contains(t, out, "- Duration: **7.2h** (🟢 Good)")
	assert.Contains(t, out, "- Last session: 23:10 → 06:40")
	assert.Contains(t, out, "## 💪 Workouts (last 7 days)")
	assert.Contains(t, out, "- Count: **1** sessions")
	assert.Contains(t, out, "  - running: 42 min, 7.1 km (2026-03-14)")
	assert.Contains(t, out, "## ⚖️ Body")
	assert.Contains(t, out, "- Weight: 71.4 kg")
	assert.Contains(t, out, "## 🧠 Mood")
	assert.Contains(t, out, "- Today's mood: 😊 (valence: 0.45)")
	assert.Contains(t, out, "## 🩺 Vitals")
	assert.Contains(t, out, "- SpO₂: 97.6%")
	assert.Contains(t, out, "## 📊 7-Day Trends")
	assert.Contains(t, out, "- Avg steps: 9200")
	assert.Contains(t, out, "- Avg sleep: 7.2h")
	assert.NotContains(t, out, "## 🚨 Alerts")
}

func TestRenderReportMissingMetrics(t *testing.T) {
	data := &reportData{
		Days:      7,
		Summaries: []serverapi.DailySummary{{Date: "2026-03-14"}},
	}

	out := renderReport(data)

	assert.Contains(t, out, "- Steps: **—**")
	assert.Contains(t, out, "- Distance: —")
	assert.Contains(t, out, "- No sleep data for today")
	assert.Contains(t, out, "- No workouts recorded")
	assert.NotContains(t, out, "Body Battery")
	assert.NotContains(t, out, "## ⚖️ Body")
	assert.NotContains(t, out, "## 🧠 Mood")
	assert.NotContains(t, out, "## 🩺 Vitals")
	assert.NotContains(t, out, "## 📊")
}

func TestTrendArrow(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     string
	}{
		{"rising above five percent", 106, 100, " ↑"},
		{"falling below five percent", 94, 100, " ↓"},
		{"at upper boundary stays flat", 105, 100, " →"},
		{"at lower boundary stays flat", 95, 100, " →"},
		{"unchanged", 100, 100, " →"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trendArrow(&tt.current, &tt.previous))
		})
	}

	v := 100.0
	assert.Equal(t, "", trendArrow(nil, &v))
	assert.Equal(t, "", trendArrow(&v, nil))
}

func TestCollectAlerts(t *testing.T) {
	clean := fullSummary("2026-03-14")
	assert.Empty(t, collectAlerts(clean))

	stressed := fullSummary("2026-03-14")
	stressed.RestingHR = fptr(88)
	stressed.HRVSDNN = fptr(15)
	stressed.SleepDurationMin = fptr(250)
	stressed.BodyBattery = iptr(22)
	stressed.Steps = iptr(1800)

	alerts := collectAlerts(stressed)
	assert.Len(t, alerts, 5)
	assert.Contains(t, alerts, "⚠️ Resting HR elevated (>80 bpm)")
	assert.Contains(t, alerts, "⚠️ HRV very low (<20 ms) — possible stress/fatigue")
	assert.Contains(t, alerts, "⚠️ Sleep under 5 hours")
	assert.Contains(t, alerts, "⚠️ Body battery critically low")
	assert.Contains(t, alerts, "💡 Low step count — try to move more today")

	bradycardic := fullSummary("2026-03-14")
	bradycardic.RestingHR = fptr(38)
	assert.Contains(t, collectAlerts(bradycardic), "⚠️ Resting HR unusually low (<40 bpm)")
}

func TestRenderReportAlertSection(t *testing.T) {
	summary := fullSummary("2026-03-14")
	summary.Steps = iptr(1200)

	out := renderReport(&reportData{Days: 7, Summaries: []serverapi.DailySummary{summary}})

	assert.Contains(t, out, "## 🚨 Alerts")
	assert.Contains(t, out, "- 💡 Low step count — try to move more today")
}

func TestRenderReportSleepQualityBands(t *testing.T) {
	mk := func(minutes float64) string {
		s := fullSummary("2026-03-14")
		s.SleepDurationMin = fptr(minutes)
		return renderReport(&reportData{Days: 7, Summaries: []serverapi.DailySummary{s}})
	}

	assert.Contains(t, mk(450), "(🟢 Good)")
	assert.Contains(t, mk(390), "(🟡 Fair)")
	assert.Contains(t, mk(330), "(🔴 Low)")
}

func TestRenderReportBodyBatteryBands(t *testing.T) {
	mk := func(bb int) string {
		s := fullSummary("2026-03-14")
		s.BodyBattery = iptr(bb)
		return renderReport(&reportData{Days: 7, Summaries: []serverapi.DailySummary{s}})
	}

	assert.Contains(t, mk(82), "## 🟢 Body Battery: 82/100")
	assert.Contains(t, mk(55), "## 🟡 Body Battery: 55/100")
	assert.Contains(t, mk(31), "## 🔴 Body Battery: 31/100")
}
