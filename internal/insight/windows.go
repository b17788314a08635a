package insight

import (
	"sort"
	"time"

	"ptpal/internal/model"
)

// Standard trailing windows used by the risk engine. Offsets are in days
// backward from the evaluation instant.
const (
	WindowRecent   = "recent"     // [0, 14)
	WindowPrevious = "previous"   // [14, 28)
	WindowFourWeek = "four_weeks" // [0, 28)
	WindowHistory  = "history"    // [0, 56)
)

// Window is a named trailing interval [StartDays, EndDays) measured
// backward from the reference instant. The interval is half-open: a record
// whose age is exactly EndDays falls outside, a record whose age is exactly
// StartDays falls inside. A record sitting exactly on the seam between two
// adjacent windows therefore belongs to the earlier (larger-offset) one.
type Window struct {
	Name      string
	StartDays int
	EndDays   int
}

// StandardWindows returns the window set the risk engine aggregates over.
func StandardWindows() []Window {
	return []Window{
		{Name: WindowRecent, StartDays: 0, EndDays: 14},
		{Name: WindowPrevious, StartDays: 14, EndDays: 28},
		{Name: WindowFourWeek, StartDays: 0, EndDays: 28},
		{Name: WindowHistory, StartDays: 0, EndDays: 56},
	}
}

// Contains reports whether t falls inside the window relative to now.
func (w Window) Contains(now, t time.Time) bool {
	age := now.Sub(t)
	start := time.Duration(w.StartDays) * 24 * time.Hour
	end := time.Duration(w.EndDays) * 24 * time.Hour
	return age >= start && age < end
}

// WeightSample is one body-weight observation inside a window.
type WeightSample struct {
	At     time.Time
	Weight float64
}

// WindowStats holds the per-window counts and samples the factor scorers
// consume. Weights are sorted ascending by time.
type WindowStats struct {
	CompletedSessions int
	NoShowSessions    int
	CancelledSessions int
	ScheduledSessions int

	TrainerMessages int
	MemberMessages  int

	Weights []WeightSample
}

// FirstWeight returns the earliest weight sample in the window.
func (s *WindowStats) FirstWeight() (WeightSample, bool) {
	if len(s.Weights) == 0 {
		return WeightSample{}, false
	}
	return s.Weights[0], true
}

// LastWeight returns the latest weight sample in the window.
func (s *WindowStats) LastWeight() (WeightSample, bool) {
	if len(s.Weights) == 0 {
		return WeightSample{}, false
	}
	return s.Weights[len(s.Weights)-1], true
}

// EventSet is the raw per-member event slice fed into the aggregator.
type EventSet struct {
	Sessions    []model.SessionRecord
	BodyRecords []model.BodyRecord
	Messages    []model.MessageRecord
}

// Aggregate buckets events into the given windows. Pure function: empty
// input yields all-zero stats for every window, never an error.
func Aggregate(now time.Time, windows []Window, events EventSet) map[string]*WindowStats {
	out := make(map[string]*WindowStats, len(windows))
	for _, w := range windows {
		out[w.Name] = &WindowStats{}
	}

	for _, w := range windows {
		stats := out[w.Name]

		for _, s := range events.Sessions {
			if !w.Contains(now, s.ScheduledAt) {
				continue
			}
			switch s.Status {
			case model.SessionCompleted:
				stats.CompletedSessions++
			case model.SessionNoShow:
				stats.NoShowSessions++
			case model.SessionCancelled:
				stats.CancelledSessions++
			case model.SessionScheduled:
				stats.ScheduledSessions++
			}
		}

		for _, m := range events.Messages {
			if !w.Contains(now, m.SentAt) {
				continue
			}
			if m.Sender == model.SenderTrainer {
				stats.TrainerMessages++
			} else {
				stats.MemberMessages++
			}
		}

		for _, b := range events.BodyRecords {
			if b.Weight <= 0 || !w.Contains(now, b.RecordedAt) {
				continue
			}
			stats.Weights = append(stats.Weights, WeightSample{At: b.RecordedAt, Weight: b.Weight})
		}
		sort.Slice(stats.Weights, func(i, j int) bool {
			return stats.Weights[i].At.Before(stats.Weights[j].At)
		})
	}

	return out
}
