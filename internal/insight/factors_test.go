package insight

import (
	"testing"

	"ptpal/internal/model"

	"github.com/stretchr/testify/assert"
)

func stats(completed int) *WindowStats {
	return &WindowStats{CompletedSessions: completed}
}

func weights(samples ...WeightSample) *WindowStats {
	return &WindowStats{Weights: samples}
}

func TestScoreAttendanceDrop(t *testing.T) {
	tests := []struct {
		name         string
		recent       int
		previous     int
		wantScore    int
		insufficient bool
	}{
		{"no baseline", 0, 0, 0, true},
		{"severe drop 30%", 7, 10, 100, false},
		{"moderate drop 20%", 8, 10, 70, false},
		{"mild drop 10%", 9, 10, 40, false},
		{"steady", 10, 10, 0, false},
		{"improving", 12, 10, 0, false},
		{"total stop", 0, 5, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := ScoreAttendanceDrop(stats(tt.recent), stats(tt.previous))
			assert.Equal(t, tt.wantScore, fs.Score)
			assert.Equal(t, tt.insufficient, fs.Insufficient)
			if tt.wantScore > 0 {
				assert.NotEmpty(t, fs.Detail)
			} else {
				assert.Empty(t, fs.Detail)
			}
		})
	}
}

func TestScoreWeightPlateauInsufficientData(t *testing.T) {
	fs := ScoreWeightPlateau(model.GoalReduceWeight, weights(), weights())
	assert.True(t, fs.Insufficient)
	assert.Zero(t, fs.Score)

	one := weights(WeightSample{At: daysAgo(5), Weight: 80})
	fs = ScoreWeightPlateau(model.GoalReduceWeight, one, one)
	assert.True(t, fs.Insufficient)
}

func TestScoreWeightPlateauReversal(t *testing.T) {
	// Gaining 0.6 kg on a weight-loss goal is a reversal, and it outranks
	// any plateau finding.
	fourWeek := weights(
		WeightSample{At: daysAgo(25), Weight: 80.0},
		WeightSample{At: daysAgo(1), Weight: 80.6},
	)
	fs := ScoreWeightPlateau(model.GoalReduceWeight, fourWeek, weights())
	assert.Equal(t, 100, fs.Score)
	assert.Contains(t, fs.Detail, "gained")

	// Exactly 0.5 kg is not past the reversal threshold.
	fourWeek = weights(
		WeightSample{At: daysAgo(25), Weight: 80.0},
		WeightSample{At: daysAgo(1), Weight: 80.5},
	)
	fs = ScoreWeightPlateau(model.GoalReduceWeight, fourWeek, weights())
	assert.Zero(t, fs.Score)

	// Losing on a muscle-gain goal mirrors the rule.
	fourWeek = weights(
		WeightSample{At: daysAgo(25), Weight: 70.0},
		WeightSample{At: daysAgo(1), Weight: 69.2},
	)
	fs = ScoreWeightPlateau(model.GoalIncreaseMuscle, fourWeek, weights())
	assert.Equal(t, 100, fs.Score)

	// A goal without a weight direction never triggers the reversal branch.
	fs = ScoreWeightPlateau(model.GoalGeneralFitness, fourWeek, weights())
	assert.Zero(t, fs.Score)
}

func TestScoreWeightPlateauConfirmation(t *testing.T) {
	fourWeek := weights(
		WeightSample{At: daysAgo(25), Weight: 80.0},
		WeightSample{At: daysAgo(10), Weight: 80.1},
		WeightSample{At: daysAgo(1), Weight: 80.2},
	)
	flatTwoWeek := weights(
		WeightSample{At: daysAgo(10), Weight: 80.1},
		WeightSample{At: daysAgo(1), Weight: 80.2},
	)

	fs := ScoreWeightPlateau(model.GoalReduceWeight, fourWeek, flatTwoWeek)
	assert.Equal(t, 60, fs.Score)
	assert.Contains(t, fs.Detail, "flat")

	// Recent movement of 0.4 kg breaks the tighter 0.3 kg band even though
	// four weeks look flat.
	movingTwoWeek := weights(
		WeightSample{At: daysAgo(10), Weight: 79.8},
		WeightSample{At: daysAgo(1), Weight: 80.2},
	)
	fs = ScoreWeightPlateau(model.GoalReduceWeight, fourWeek, movingTwoWeek)
	assert.Zero(t, fs.Score)

	// Too few recent samples means no confirmation, not a penalty.
	fs = ScoreWeightPlateau(model.GoalReduceWeight, fourWeek, weights())
	assert.Zero(t, fs.Score)
	assert.False(t, fs.Insufficient)
}

func TestScoreMessageNonresponse(t *testing.T) {
	fs := ScoreMessageNonresponse(&WindowStats{TrainerMessages: 0, MemberMessages: 3})
	assert.True(t, fs.Insufficient)
	assert.Zero(t, fs.Score)
	assert.Equal(t, 100.0, fs.Evidence["responseRate"])

	tests := []struct {
		trainer, member, want int
	}{
		{5, 0, 100},
		{5, 1, 70}, // 20%
		{5, 2, 40}, // 40%
		{4, 2, 0},  // 50%
		{2, 4, 0},  // over 100%
	}
	for _, tt := range tests {
		fs := ScoreMessageNonresponse(&WindowStats{TrainerMessages: tt.trainer, MemberMessages: tt.member})
		assert.Equal(t, tt.want, fs.Score, "trainer=%d member=%d", tt.trainer, tt.member)
	}
}

func TestScoreRemainingSessions(t *testing.T) {
	tests := []struct {
		remaining, want int
	}{
		{0, 100},
		{3, 100},
		{4, 60},
		{5, 60},
		{6, 30},
		{10, 30},
		{11, 0},
	}
	for _, tt := range tests {
		fs := ScoreRemainingSessions(tt.remaining)
		assert.Equal(t, tt.want, fs.Score, "remaining=%d", tt.remaining)
	}
}

func TestScoreGoalProgress(t *testing.T) {
	member := model.Member{Goal: model.GoalReduceWeight, TargetWeight: 70}

	// No target weight is neutral.
	fs := ScoreGoalProgress(model.Member{}, weights(
		WeightSample{At: daysAgo(50), Weight: 80},
		WeightSample{At: daysAgo(1), Weight: 79},
	))
	assert.True(t, fs.Insufficient)
	assert.Zero(t, fs.Score)

	// 10% of the way from 80 to 70.
	fs = ScoreGoalProgress(member, weights(
		WeightSample{At: daysAgo(50), Weight: 80},
		WeightSample{At: daysAgo(1), Weight: 79},
	))
	assert.Equal(t, 80, fs.Score)

	// 40% progress.
	fs = ScoreGoalProgress(member, weights(
		WeightSample{At: daysAgo(50), Weight: 80},
		WeightSample{At: daysAgo(1), Weight: 76},
	))
	assert.Equal(t, 40, fs.Score)

	// 60% progress clears the risk bands.
	fs = ScoreGoalProgress(member, weights(
		WeightSample{At: daysAgo(50), Weight: 80},
		WeightSample{At: daysAgo(1), Weight: 74},
	))
	assert.Zero(t, fs.Score)
	assert.False(t, fs.Insufficient)

	// Movement away from the target is zero progress.
	fs = ScoreGoalProgress(member, weights(
		WeightSample{At: daysAgo(50), Weight: 80},
		WeightSample{At: daysAgo(1), Weight: 82},
	))
	assert.Equal(t, 80, fs.Score)
	assert.Equal(t, 0.0, fs.Evidence["progressPercent"])

	// Already at the target weight: nothing to measure.
	fs = ScoreGoalProgress(member, weights(
		WeightSample{At: daysAgo(50), Weight: 70},
		WeightSample{At: daysAgo(1), Weight: 70.4},
	))
	assert.True(t, fs.Insufficient)
}
