package insight

import (
	"fmt"
	"math"
	"time"

	"ptpal/internal/model"
)

// Auxiliary analyzers sharing the churn-risk engine's shape: pure functions
// from member data to an optional insight. A nil return means "nothing
// worth telling the trainer".

const day = 24 * time.Hour

// AnalyzePTExpiry flags enrollments ending within seven days.
func AnalyzePTExpiry(member model.Member, now time.Time) *model.Insight {
	if member.EndDate.IsZero() {
		return nil
	}
	daysLeft := int(math.Ceil(member.EndDate.Sub(now).Hours() / 24))
	if daysLeft <= 0 || daysLeft > 7 {
		return nil
	}

	priority := model.PriorityMedium
	if daysLeft <= 3 {
		priority = model.PriorityHigh
	}

	msg := fmt.Sprintf("%s's PT enrollment ends in %d days.", member.Name, daysLeft)
	action := "Check whether the member wants to extend."
	if member.RemainingSessions > 0 {
		msg += fmt.Sprintf(" %d sessions are still unused.", member.RemainingSessions)
		action = "Schedule the remaining sessions or suggest an extension."
	}

	return &model.Insight{
		TrainerID:        member.TrainerID,
		MemberID:         member.ID,
		MemberName:       member.Name,
		Type:             model.InsightPTExpiry,
		Priority:         priority,
		Title:            fmt.Sprintf("%s: PT ending soon", member.Name),
		Message:          msg,
		ActionSuggestion: action,
		Data: map[string]interface{}{
			"daysUntilExpiry":   daysLeft,
			"remainingSessions": member.RemainingSessions,
			"endDate":           member.EndDate.Format(time.RFC3339),
		},
		CreatedAt: now,
		ExpiresAt: member.EndDate,
	}
}

// AnalyzePlateau emits a standalone plateau insight when weight has moved
// less than 0.5 kg across the four-week window.
func AnalyzePlateau(member model.Member, events EventSet, now time.Time) *model.Insight {
	agg := Aggregate(now, []Window{{Name: WindowFourWeek, StartDays: 0, EndDays: 28}}, events)
	stats := agg[WindowFourWeek]

	first, okFirst := stats.FirstWeight()
	last, okLast := stats.LastWeight()
	if !okFirst || !okLast || len(stats.Weights) < 2 {
		return nil
	}

	change := math.Abs(last.Weight - first.Weight)
	if change >= plateauBandKg {
		return nil
	}

	weeks := int(math.Ceil(last.At.Sub(first.At).Hours() / (24 * 7)))
	if weeks < 4 {
		weeks = 4
	}

	return &model.Insight{
		TrainerID:        member.TrainerID,
		MemberID:         member.ID,
		MemberName:       member.Name,
		Type:             model.InsightPlateauDetection,
		Priority:         model.PriorityMedium,
		Title:            fmt.Sprintf("%s: %d-week weight plateau", member.Name, weeks),
		Message:          fmt.Sprintf("%s's weight has moved only %.1f kg in %d weeks.", member.Name, change, weeks),
		ActionSuggestion: "Consider adjusting the program or reviewing the diet plan.",
		Data: map[string]interface{}{
			"plateauWeeks": weeks,
			"firstWeight":  first.Weight,
			"lastWeight":   last.Weight,
			"weightChange": change,
			"recordCount":  len(stats.Weights),
		},
		CreatedAt: now,
		ExpiresAt: now.Add(14 * day),
	}
}

// AnalyzeRenewalLikelihood estimates renewal odds for members whose
// enrollment ends within two weeks: goal achievement 0.4, attendance 0.4,
// session utilization 0.2. Emits only at 60% or above.
func AnalyzeRenewalLikelihood(member model.Member, events EventSet, now time.Time) *model.Insight {
	if member.EndDate.IsZero() {
		return nil
	}
	daysLeft := int(math.Ceil(member.EndDate.Sub(now).Hours() / 24))
	if daysLeft < 0 || daysLeft > 14 {
		return nil
	}

	agg := Aggregate(now, []Window{{Name: WindowHistory, StartDays: 0, EndDays: 56}}, events)
	history := agg[WindowHistory]

	// Goal achievement defaults to the midpoint when unknowable.
	goalAchievement := 50
	if member.TargetWeight > 0 {
		if first, ok := history.FirstWeight(); ok {
			if last, ok2 := history.LastWeight(); ok2 && len(history.Weights) >= 2 {
				targetChange := math.Abs(member.TargetWeight - first.Weight)
				actualChange := math.Abs(last.Weight - first.Weight)
				if targetChange > 0 {
					goalAchievement = int(math.Min(math.Round(actualChange/targetChange*100), 100))
				}
			}
		}
	}

	decided := history.CompletedSessions + history.NoShowSessions + history.CancelledSessions + history.ScheduledSessions
	attendanceRate := 50
	if decided > 0 {
		attendanceRate = int(math.Round(float64(history.CompletedSessions) / float64(decided) * 100))
	}

	utilization := 0
	if member.TotalSessions > 0 {
		utilization = int(math.Round(float64(member.TotalSessions-member.RemainingSessions) / float64(member.TotalSessions) * 100))
	}

	likelihood := int(math.Round(float64(goalAchievement)*0.4 + float64(attendanceRate)*0.4 + float64(utilization)*0.2))
	if likelihood < 60 {
		return nil
	}

	return &model.Insight{
		TrainerID:        member.TrainerID,
		MemberID:         member.ID,
		MemberName:       member.Name,
		Type:             model.InsightRenewalLikelihood,
		Priority:         model.PriorityMedium,
		Title:            fmt.Sprintf("%s: %d%% renewal likelihood", member.Name, likelihood),
		Message:          fmt.Sprintf("%s is at %d%% renewal likelihood with %d%% goal achievement.", member.Name, likelihood, goalAchievement),
		ActionSuggestion: "Good timing to offer a renewal package.",
		Data: map[string]interface{}{
			"renewalLikelihood":  likelihood,
			"goalAchievement":    goalAchievement,
			"attendanceRate":     attendanceRate,
			"sessionUtilization": utilization,
			"daysUntilExpiry":    daysLeft,
		},
		CreatedAt: now,
		ExpiresAt: member.EndDate,
	}
}

// noshowSlot labels a weekday/time-of-day bucket.
type noshowSlot struct {
	total  int
	noshow int
}

var slotLabels = [3]string{"morning", "afternoon", "evening"}

// AnalyzeNoshowPattern is trainer-wide: it looks for the weekday and time
// slot with the worst no-show rate across all of the trainer's sessions.
// Needs at least 10 decided sessions, a 10% overall rate, and a 20% rate in
// the peak slot before it speaks up.
func AnalyzeNoshowPattern(trainerID string, sessions []model.SessionRecord, now time.Time) *model.Insight {
	var decided []model.SessionRecord
	noshows := 0
	for _, s := range sessions {
		if s.Status == model.SessionCompleted || s.Status == model.SessionNoShow {
			decided = append(decided, s)
			if s.Status == model.SessionNoShow {
				noshows++
			}
		}
	}
	if len(decided) < 10 {
		return nil
	}
	overall := float64(noshows) / float64(len(decided))
	if overall < 0.1 {
		return nil
	}

	var daySlots [7]noshowSlot
	var timeSlots [3]noshowSlot
	for _, s := range decided {
		d := int(s.ScheduledAt.Weekday())
		daySlots[d].total++

		h := s.ScheduledAt.Hour()
		t := 2 // evening
		switch {
		case h >= 6 && h < 12:
			t = 0
		case h >= 12 && h < 18:
			t = 1
		}
		timeSlots[t].total++

		if s.Status == model.SessionNoShow {
			daySlots[d].noshow++
			timeSlots[t].noshow++
		}
	}

	bestDay, bestDayRate := 0, 0.0
	for d, slot := range daySlots {
		if slot.total < 3 {
			continue
		}
		rate := float64(slot.noshow) / float64(slot.total)
		if rate > bestDayRate {
			bestDayRate = rate
			bestDay = d
		}
	}
	bestTime, bestTimeRate := 0, 0.0
	for t, slot := range timeSlots {
		if slot.total < 3 {
			continue
		}
		rate := float64(slot.noshow) / float64(slot.total)
		if rate > bestTimeRate {
			bestTimeRate = rate
			bestTime = t
		}
	}

	if bestDayRate < 0.2 {
		return nil
	}

	dayName := time.Weekday(bestDay).String()
	peakPercent := int(math.Round(bestDayRate * 100))
	priority := model.PriorityMedium
	if peakPercent > 30 {
		priority = model.PriorityHigh
	}

	return &model.Insight{
		TrainerID:        trainerID,
		Type:             model.InsightNoshowPattern,
		Priority:         priority,
		Title:            fmt.Sprintf("No-show risk: %s %s", dayName, slotLabels[bestTime]),
		Message:          fmt.Sprintf("%s %s sessions hit a %d%% no-show rate.", dayName, slotLabels[bestTime], peakPercent),
		ActionSuggestion: "Send reminders the evening before these slots.",
		Data: map[string]interface{}{
			"overallNoshowRate": int(math.Round(overall * 100)),
			"peakDay":           dayName,
			"peakDayRate":       peakPercent,
			"peakTimeSlot":      slotLabels[bestTime],
			"peakTimeRate":      int(math.Round(bestTimeRate * 100)),
			"decidedSessions":   len(decided),
		},
		CreatedAt: now,
		ExpiresAt: now.Add(30 * day),
	}
}
