// Package sleep segments raw sleep-stage events into discrete sessions.
package sleep

import (
	"sort"
	"time"

	"github.com/healthbridge/healthbridge/internal/types"
)

// SessionGap is the minimum idle time between consecutive stage events
// that splits them into separate sessions.
const SessionGap = 30 * time.Minute

// Segment groups sleep-stage events into sessions. Events are sorted by
// start time, inBed events are excluded, and a new session begins
// whenever the gap between an event's start and the running session end
// exceeds SessionGap. Events that touch or overlap the running session
// are merged into it regardless of stage kind. The computation is pure;
// calling it twice on the same input yields identical sessions.
func Segment(events []types.CategoryEvent) []types.SleepSession {
	staged := make([]types.CategoryEvent, 0, len(events))
	var inBed []types.CategoryEvent
	for _, ev := range events {
		if ev.Kind == types.StageInBed {
			inBed = append(inBed, ev)
			continue
		}
		staged = append(staged, ev)
	}
	sort.SliceStable(staged, func(i, j int) bool {
		return staged[i].Start.Before(staged[j].Start)
	})

	var sessions []types.SleepSession
	var current []types.CategoryEvent
	var currentEnd time.Time

	flush := func() {
		if s, ok := buildSession(current, inBed); ok {
			sessions = append(sessions, s)
		}
		current = current[:0]
	}

	for _, ev := range staged {
		if len(current) > 0 && ev.Start.Sub(currentEnd) > SessionGap {
			flush()
		}
		if len(current) == 0 || ev.End.After(currentEnd) {
			currentEnd = ev.End
		}
		current = append(current, ev)
	}
	flush()

	return sessions
}

// buildSession converts accumulated events into a SleepSession. Sessions
// containing only unknown stages are discarded.
func buildSession(events, inBed []types.CategoryEvent) (types.SleepSession, bool) {
	if len(events) == 0 {
		return types.SleepSession{}, false
	}

	hasKnownStage := false
	start := events[0].Start
	end := events[0].End
	stages := make([]types.SleepStage, 0, len(events))
	for _, ev := range events {
		if ev.Kind != types.StageUnknown {
			hasKnownStage = true
		}
		if ev.End.After(end) {
			end = ev.End
		}
		stages = append(stages, types.SleepStage{
			Stage:       ev.Kind,
			Start:       ev.Start,
			End:         ev.End,
			DurationMin: ev.End.Sub(ev.Start).Minutes(),
		})
	}
	if !hasKnownStage {
		return types.SleepSession{}, false
	}

	session := types.SleepSession{
		Start:            start,
		End:              end,
		TotalDurationMin: end.Sub(start).Minutes(),
		Stages:           stages,
	}
	if mins := inBedOverlapMinutes(inBed, start, end); mins > 0 {
		session.InBedDurationMin = &mins
	}
	return session, true
}

// inBedOverlapMinutes sums the portions of inBed events that fall inside
// the session span.
func inBedOverlapMinutes(inBed []types.CategoryEvent, start, end time.Time) float64 {
	var total float64
	for _, ev := range inBed {
		s, e := ev.Start, ev.End
		if s.Before(start) {
			s = start
		}
		if e.After(end) {
			e = end
		}
		if e.After(s) {
			total += e.Sub(s).Minutes()
		}
	}
	return total
}
