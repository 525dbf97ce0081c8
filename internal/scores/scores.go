// Package scores computes the synthetic body battery and sleep quality
// scores. Both are fixed-threshold heuristics over whatever inputs are
// available, not measured biometrics; a nil input contributes nothing
// rather than counting as zero.
package scores

// BatteryInput holds the optional inputs to the body battery heuristic.
type BatteryInput struct {
	HRV          *float64 // SDNN, milliseconds
	SleepMinutes *float64 // time asleep last night
	Steps        *int     // steps so far today
}

// BodyBattery estimates recovery/energy on a 0-100 scale. The baseline
// is 50 and each available input shifts it by a fixed amount.
func BodyBattery(in BatteryInput) int {
	score := 50

	if in.HRV != nil {
		switch hrv := *in.HRV; {
		case hrv > 50:
			score += 20
		case hrv > 35:
			score += 10
		case hrv < 20:
			score -= 15
		}
	}

	if in.SleepMinutes != nil {
		switch mins := *in.SleepMinutes; {
		case mins >= 420 && mins <= 540:
			score += 20
		case mins >= 360:
			score += 10
		case mins < 300:
			score -= 15
		}
	}

	if in.Steps != nil {
		switch steps := *in.Steps; {
		case steps > 5000 && steps < 15000:
			score += 10
		case steps > 20000:
			score -= 10
		}
	}

	return clamp(score, 0, 100)
}

// SleepQualityInput holds the optional inputs to the sleep quality
// heuristic, all derived from the night's segmented sessions.
type SleepQualityInput struct {
	AsleepMinutes *float64
	DeepMinutes   *float64
	REMMinutes    *float64
	EfficiencyPct *float64
}

// SleepQuality scores a night of sleep on a 0-100 scale as the sum of
// four bucketed sub-scores: duration (0-35), deep-stage share (0-25),
// REM share (0-25), and efficiency (0-15).
func SleepQuality(in SleepQualityInput) int {
	score := 0

	if in.AsleepMinutes != nil {
		switch mins := *in.AsleepMinutes; {
		case mins >= 480:
			score += 35
		case mins >= 420:
			score += 30
		case mins >= 360:
			score += 22
		case mins >= 300:
			score += 12
		default:
			score += 5
		}
	}

	if pct, ok := stagePct(in.DeepMinutes, in.AsleepMinutes); ok {
		switch {
		case pct >= 13 && pct <= 23:
			score += 25
		case pct >= 8 && pct < 13:
			score += 15
		case pct > 0:
			score += 8
		}
	}

	if pct, ok := stagePct(in.REMMinutes, in.AsleepMinutes); ok {
		switch {
		case pct >= 18 && pct <= 28:
			score += 25
		case pct >= 12 && pct < 18:
			score += 15
		case pct > 0:
			score += 8
		}
	}

	if in.EfficiencyPct != nil {
		switch eff := *in.EfficiencyPct; {
		case eff >= 90:
			score += 15
		case eff >= 85:
			score += 12
		case eff >= 75:
			score += 8
		default:
			score += 3
		}
	}

	return clamp(score, 0, 100)
}

// stagePct returns a stage's share of total sleep as a percentage.
func stagePct(stageMin, asleepMin *float64) (float64, bool) {
	if stageMin == nil || asleepMin == nil || *asleepMin <= 0 {
		return 0, false
	}
	return *stageMin / *asleepMin * 100, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
