package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthbridge/healthbridge/internal/serverapi"
)

// missing marks a metric the server has no value for.
const missing = "—"

type reportData struct {
	Days      int
	Summaries []serverapi.DailySummary
	Workouts  []serverapi.WorkoutRow
	Sleep     []serverapi.SleepRow
	Mood      []serverapi.MoodRow
}

// renderReport turns fetched health data into the markdown report the
// agent posts. Newest summary first; yesterday's row drives the trend
// arrows.
func renderReport(data *reportData) string {
	summaries := data.Summaries
	if len(summaries) == 0 {
		return "No health data available yet. Waiting for first sync from the device.\n"
	}

	var b strings.Builder

	today := summaries[0]
	var yesterday serverapi.DailySummary
	if len(summaries) > 1 {
		yesterday = summaries[1]
	}

	date := today.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	fmt.Fprintf(&b, "# Health Report — %s\n\n", date)

	if today.BodyBattery != nil {
		bb := *today.BodyBattery
		emoji := "🔴"
		if bb >= 70 {
			emoji = "🟢"
		} else if bb >= 40 {
			emoji = "🟡"
		}
		fmt.Fprintf(&b, "## %s Body Battery: %d/100\n\n", emoji, bb)
	}

	b.WriteString("## 🏃 Activity\n")
	fmt.Fprintf(&b, "- Steps: **%s**%s\n", fmtInt(today.Steps, ""), trendArrow(asFloat(today.Steps), asFloat(yesterday.Steps)))
	fmt.Fprintf(&b, "- Distance: %s\n", fmtFloat(today.DistanceKm, " km", 1))
	fmt.Fprintf(&b, "- Active Calories: %s\n", fmtFloat(today.ActiveCalories, " kcal", 0))
	fmt.Fprintf(&b, "- Exercise: %s\n", fmtFloat(today.ExerciseMinutes, " min", 0))
	fmt.Fprintf(&b, "- Flights Climbed: %s\n", fmtInt(today.FlightsClimbed, ""))
	b.WriteString("\n")

	b.WriteString("## ❤️ Heart\n")
	fmt.Fprintf(&b, "- Resting HR: **%s**%s\n", fmtFloat(today.RestingHR, " bpm", 0), trendArrow(today.RestingHR, yesterday.RestingHR))
	fmt.Fprintf(&b, "- Average HR: %s\n", fmtFloat(today.AvgHR, " bpm", 0))
	fmt.Fprintf(&b, "- HRV (SDNN): **%s**%s\n", fmtFloat(today.HRVSDNN, " ms", 0), trendArrow(today.HRVSDNN, yesterday.HRVSDNN))
	b.WriteString("\n")

	b.WriteString("## 😴 Sleep\n")
	if today.SleepDurationMin != nil {
		hours := *today.SleepDurationMin / 60
		quality := "🔴 Low"
		if hours >= 7 {
			quality = "🟢 Good"
		} else if hours >= 6 {
			quality = "🟡 Fair"
		}
		fmt.Fprintf(&b, "- Duration: **%.1fh** (%s)\n", hours, quality)
		fmt.Fprintf(&b, "- Deep: %s\n", fmtFloat(today.DeepSleepMin, " min", 0))
		fmt.Fprintf(&b, "- REM: %s\n", fmtFloat(today.RemSleepMin, " min", 0))
		fmt.Fprintf(&b, "- Core: %s\n", fmtFloat(today.CoreSleepMin, " min", 0))
		fmt.Fprintf(&b, "- Awake: %s\n", fmtFloat(today.AwakeMin, " min", 0))
		if len(data.Sleep) > 0 {
			last := data.Sleep[0]
			fmt.Fprintf(&b, "- Last session: %s → %s\n", last.StartTime.Format("15:04"), last.EndTime.Format("15:04"))
		}
	} else {
		b.WriteString("- No sleep data for today\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## 💪 Workouts (last %d days)\n", data.Days)
	if len(data.Workouts) > 0 {
		var totalMin, totalCal float64
		for _, w := range data.Workouts {
			if w.DurationMin != nil {
				totalMin += *w.DurationMin
			}
			if w.ActiveCalories != nil {
				totalCal += *w.ActiveCalories
			}
		}
		fmt.Fprintf(&b, "- Count: **%d** sessions\n", len(data.Workouts))
		fmt.Fprintf(&b, "- Total time: %.0f min\n", totalMin)
		fmt.Fprintf(&b, "- Total calories: %.0f kcal\n", totalCal)
		b.WriteString("\nRecent:\n")
		for i, w := range data.Workouts {
			if i >= 5 {
				break
			}
			dist := ""
			if w.DistanceKm != nil {
				dist = fmt.Sprintf(", %.1f km", *w.DistanceKm)
			}
			fmt.Fprintf(&b, "  - %s: %s%s (%s)\n", w.WorkoutType, fmtFloat(w.DurationMin, " min", 0), dist, w.Date)
		}
	} else {
		b.WriteString("- No workouts recorded\n")
	}
	b.WriteString("\n")

	if today.WeightKg != nil {
		b.WriteString("## ⚖️ Body\n")
		fmt.Fprintf(&b, "- Weight: %s\n", fmtFloat(today.WeightKg, " kg", 1))
		if today.BodyFatPct != nil {
			fmt.Fprintf(&b, "- Body Fat: %s\n", fmtFloat(today.BodyFatPct, "%", 1))
		}
		b.WriteString("\n")
	}

	if len(data.Mood) > 0 {
		b.WriteString("## 🧠 Mood\n")
		if today.MoodAvgValence != nil {
			valence := *today.MoodAvgValence
			emoji := "😔"
			if valence > 0.3 {
				emoji = "😊"
			} else if valence > -0.3 {
				emoji = "😐"
			}
			fmt.Fprintf(&b, "- Today's mood: %s (valence: %.2f)\n", emoji, valence)
		}
		b.WriteString("\n")
	}

	if today.BloodOxygenPct != nil || today.RespiratoryRate != nil {
		b.WriteString("## 🩺 Vitals\n")
		if today.BloodOxygenPct != nil {
			fmt.Fprintf(&b, "- SpO₂: %s\n", fmtFloat(today.BloodOxygenPct, "%", 1))
		}
		if today.RespiratoryRate != nil {
			fmt.Fprintf(&b, "- Respiratory Rate: %s\n", fmtFloat(today.RespiratoryRate, " breaths/min", 1))
		}
		b.WriteString("\n")
	}

	if alerts := collectAlerts(today); len(alerts) > 0 {
		b.WriteString("## 🚨 Alerts\n")
		for _, a := range alerts {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(summaries) >= 3 {
		fmt.Fprintf(&b, "## 📊 %d-Day Trends\n", data.Days)

		var stepSum, stepCount int
		var sleepSum, rhrSum float64
		var sleepCount, rhrCount, workoutTotal int
		for _, s := range summaries {
			if s.Steps != nil && *s.Steps > 0 {
				stepSum += *s.Steps
				stepCount++
			}
			if s.SleepDurationMin != nil && *s.SleepDurationMin > 0 {
				sleepSum += *s.SleepDurationMin
				sleepCount++
			}
			if s.RestingHR != nil && *s.RestingHR > 0 {
				rhrSum += *s.RestingHR
				rhrCount++
			}
			if s.WorkoutCount != nil {
				workoutTotal += *s.WorkoutCount
			}
		}

		if stepCount > 0 {
			fmt.Fprintf(&b, "- Avg steps: %d\n", stepSum/stepCount)
		}
		if sleepCount > 0 {
			fmt.Fprintf(&b, "- Avg sleep: %.1fh\n", sleepSum/float64(sleepCount)/60)
		}
		if rhrCount > 0 {
			fmt.Fprintf(&b, "- Avg resting HR: %.0f bpm\n", rhrSum/float64(rhrCount))
		}
		fmt.Fprintf(&b, "- Total workouts: %d\n", workoutTotal)
	}

	return b.String()
}

// collectAlerts applies the fixed alert thresholds to today's metrics.
func collectAlerts(today serverapi.DailySummary) []string {
	var alerts []string

	if today.RestingHR != nil && *today.RestingHR > 80 {
		alerts = append(alerts, "⚠️ Resting HR elevated (>80 bpm)")
	}
	if today.RestingHR != nil && *today.RestingHR < 40 {
		alerts = append(alerts, "⚠️ Resting HR unusually low (<40 bpm)")
	}
	if today.HRVSDNN != nil && *today.HRVSDNN < 20 {
		alerts = append(alerts, "⚠️ HRV very low (<20 ms) — possible stress/fatigue")
	}
	if today.SleepDurationMin != nil && *today.SleepDurationMin < 300 {
		alerts = append(alerts, "⚠️ Sleep under 5 hours")
	}
	if today.BodyBattery != nil && *today.BodyBattery < 30 {
		alerts = append(alerts, "⚠️ Body battery critically low")
	}
	if today.Steps != nil && *today.Steps < 3000 {
		alerts = append(alerts, "💡 Low step count — try to move more today")
	}

	return alerts
}

// trendArrow marks a change of more than 5% in either direction
// against the previous day.
func trendArrow(current, previous *float64) string {
	if current == nil || previous == nil {
		return ""
	}
	if *current > *previous*1.05 {
		return " ↑"
	}
	if *current < *previous*0.95 {
		return " ↓"
	}
	return " →"
}

func asFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func fmtFloat(v *float64, unit string, decimals int) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.*f%s", decimals, *v, unit)
}

func fmtInt(v *int, unit string) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%d%s", *v, unit)
}
