// Package insight implements the member engagement scoring engine: trailing
// window aggregation, the five-factor churn-risk model, and the auxiliary
// analyzers (expiry, plateau, renewal, noshow pattern).
//
// Everything in this package is a pure function of its inputs. It has no
// dependencies on the repository or transport layers; the service layer
// feeds it fetched records and persists what it produces.
package insight

import (
	"time"

	"ptpal/internal/model"
)

// EvaluateChurnRisk runs the full window → factor → composite pipeline for
// one member. Evaluating the same member twice with identical events and
// the same now yields an identical result.
func EvaluateChurnRisk(member model.Member, events EventSet, now time.Time) RiskResult {
	agg := Aggregate(now, StandardWindows(), events)

	recent := agg[WindowRecent]
	previous := agg[WindowPrevious]
	fourWeek := agg[WindowFourWeek]
	history := agg[WindowHistory]

	scores := []FactorScore{
		ScoreAttendanceDrop(recent, previous),
		ScoreWeightPlateau(member.Goal, fourWeek, recent),
		ScoreMessageNonresponse(recent),
		ScoreRemainingSessions(member.RemainingSessions),
		ScoreGoalProgress(member, history),
	}

	return Compose(scores)
}
