package insight

import (
	"fmt"
	"math"

	"ptpal/internal/model"
)

// Factor names one dimension of the churn-risk model.
type Factor string

const (
	FactorAttendanceDrop     Factor = "attendance_drop"
	FactorWeightPlateau      Factor = "weight_plateau"
	FactorMessageNonresponse Factor = "message_nonresponse"
	FactorRemainingSessions  Factor = "remaining_sessions"
	FactorGoalProgress       Factor = "goal_progress"
)

// FactorScore is one factor's 0-100 contribution plus the numbers that
// produced it. Insufficient marks scores that are zero because the member
// lacks the data to judge, not because the signal looked healthy; the
// composer treats both the same but callers can tell them apart.
type FactorScore struct {
	Factor       Factor
	Score        int
	Insufficient bool
	Detail       string // human-readable risk factor, empty when Score == 0
	Evidence     map[string]float64
}

// Weight-change sensitivity bands. The reversal trigger (0.5 kg) and the
// two-week stability band (0.3 kg) are intentionally asymmetric.
const (
	reversalThresholdKg  = 0.5
	plateauBandKg        = 0.5
	plateauTwoWeekBandKg = 0.3
)

// ScoreAttendanceDrop compares completed sessions in the recent two weeks
// against the previous two weeks. No baseline (zero previous completions)
// means no drop signal: insufficient data never penalizes.
func ScoreAttendanceDrop(recent, previous *WindowStats) FactorScore {
	fs := FactorScore{Factor: FactorAttendanceDrop, Evidence: map[string]float64{
		"recentCompleted":   float64(recent.CompletedSessions),
		"previousCompleted": float64(previous.CompletedSessions),
	}}

	if previous.CompletedSessions == 0 {
		fs.Insufficient = true
		return fs
	}

	dropPercent := int(math.Round((1 - float64(recent.CompletedSessions)/float64(previous.CompletedSessions)) * 100))
	fs.Evidence["dropPercent"] = float64(dropPercent)

	switch {
	case dropPercent >= 30:
		fs.Score = 100
	case dropPercent >= 20:
		fs.Score = 70
	case dropPercent >= 10:
		fs.Score = 40
	}
	if fs.Score > 0 {
		fs.Detail = fmt.Sprintf("attendance down %d%% (%d → %d sessions)",
			dropPercent, previous.CompletedSessions, recent.CompletedSessions)
	}
	return fs
}

// ScoreWeightPlateau checks first-vs-last weight over the four-week window.
// A reversal (movement opposite to the goal by more than 0.5 kg) scores 100
// and short-circuits the plateau branch. A plain plateau (under 0.5 kg over
// four weeks confirmed by under 0.3 kg over the recent two weeks) scores 60.
// Goals without a weight direction (general fitness, rehabilitation) only
// take the plateau branch.
func ScoreWeightPlateau(goal model.Goal, fourWeek, twoWeek *WindowStats) FactorScore {
	fs := FactorScore{Factor: FactorWeightPlateau, Evidence: map[string]float64{}}

	first, okFirst := fourWeek.FirstWeight()
	last, okLast := fourWeek.LastWeight()
	if !okFirst || !okLast || len(fourWeek.Weights) < 2 {
		fs.Insufficient = true
		return fs
	}

	net := last.Weight - first.Weight
	fs.Evidence["netChangeKg"] = net
	fs.Evidence["sampleCount"] = float64(len(fourWeek.Weights))

	// Reversal first: gaining on a weight-loss goal or losing on a
	// muscle-gain goal outranks any plateau finding.
	switch goal {
	case model.GoalReduceWeight:
		if net > reversalThresholdKg {
			fs.Score = 100
			fs.Detail = fmt.Sprintf("gained %.1f kg against a weight-loss goal over 4 weeks", net)
			return fs
		}
	case model.GoalIncreaseMuscle:
		if net < -reversalThresholdKg {
			fs.Score = 100
			fs.Detail = fmt.Sprintf("lost %.1f kg against a muscle-gain goal over 4 weeks", -net)
			return fs
		}
	}

	if math.Abs(net) >= plateauBandKg {
		return fs
	}

	// Four weeks flat; confirm against the tighter two-week band. Too few
	// recent samples means no confirmation, not a penalty.
	f2, ok1 := twoWeek.FirstWeight()
	l2, ok2 := twoWeek.LastWeight()
	if !ok1 || !ok2 || len(twoWeek.Weights) < 2 {
		return fs
	}
	recentNet := l2.Weight - f2.Weight
	fs.Evidence["recentChangeKg"] = recentNet
	if math.Abs(recentNet) < plateauTwoWeekBandKg {
		fs.Score = 60
		fs.Detail = fmt.Sprintf("weight flat for 4 weeks (net %.1f kg)", net)
	}
	return fs
}

// ScoreMessageNonresponse rates how often the member replies to trainer
// messages in the recent two weeks. A trainer who sent nothing gives the
// member a free pass (rate defaults to 100).
func ScoreMessageNonresponse(recent *WindowStats) FactorScore {
	fs := FactorScore{Factor: FactorMessageNonresponse, Evidence: map[string]float64{
		"trainerMessages": float64(recent.TrainerMessages),
		"memberReplies":   float64(recent.MemberMessages),
	}}

	if recent.TrainerMessages == 0 {
		fs.Insufficient = true
		fs.Evidence["responseRate"] = 100
		return fs
	}

	rate := int(math.Round(float64(recent.MemberMessages) / float64(recent.TrainerMessages) * 100))
	fs.Evidence["responseRate"] = float64(rate)

	switch {
	case rate == 0:
		fs.Score = 100
	case rate < 30:
		fs.Score = 70
	case rate < 50:
		fs.Score = 40
	}
	if fs.Score > 0 {
		fs.Detail = fmt.Sprintf("replied to %d%% of trainer messages in 2 weeks", rate)
	}
	return fs
}

// ScoreRemainingSessions maps the raw remaining-session count to risk:
// members close to running out are close to deciding whether to renew.
func ScoreRemainingSessions(remaining int) FactorScore {
	fs := FactorScore{Factor: FactorRemainingSessions, Evidence: map[string]float64{
		"remainingSessions": float64(remaining),
	}}

	switch {
	case remaining <= 3:
		fs.Score = 100
	case remaining <= 5:
		fs.Score = 60
	case remaining <= 10:
		fs.Score = 30
	}
	if fs.Score > 0 {
		fs.Detail = fmt.Sprintf("only %d sessions remaining", remaining)
	}
	return fs
}

// ScoreGoalProgress compares achieved weight change against the target
// change. Movement in the wrong direction counts as zero progress; low
// progress scores risk. Without a target weight or enough history the
// factor is neutral.
func ScoreGoalProgress(member model.Member, history *WindowStats) FactorScore {
	fs := FactorScore{Factor: FactorGoalProgress, Evidence: map[string]float64{}}

	first, okFirst := history.FirstWeight()
	last, okLast := history.LastWeight()
	if member.TargetWeight <= 0 || !okFirst || !okLast || len(history.Weights) < 2 {
		fs.Insufficient = true
		return fs
	}

	targetChange := member.TargetWeight - first.Weight
	if targetChange == 0 {
		fs.Insufficient = true
		return fs
	}
	actualChange := last.Weight - first.Weight

	progress := 0
	if (targetChange > 0) == (actualChange > 0) && actualChange != 0 {
		progress = int(math.Round(actualChange / targetChange * 100))
	}
	fs.Evidence["progressPercent"] = float64(progress)
	fs.Evidence["actualChangeKg"] = actualChange
	fs.Evidence["targetChangeKg"] = targetChange

	switch {
	case progress < 20:
		fs.Score = 80
	case progress < 50:
		fs.Score = 40
	}
	if fs.Score > 0 {
		fs.Detail = fmt.Sprintf("goal progress at %d%%", progress)
	}
	return fs
}
