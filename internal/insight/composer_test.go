package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, f := range factorOrder {
		w, ok := factorWeights[f]
		require.True(t, ok, "factor %s has no weight", f)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		composite int
		want      Tier
	}{
		{0, TierLow},
		{39, TierLow},
		{40, TierMedium},
		{59, TierMedium},
		{60, TierHigh},
		{79, TierHigh},
		{80, TierCritical},
		{100, TierCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.composite), "composite=%d", tt.composite)
	}
}

func TestComposeWeightedSum(t *testing.T) {
	scores := []FactorScore{
		{Factor: FactorAttendanceDrop, Score: 70, Detail: "attendance down 20%"},
		{Factor: FactorWeightPlateau, Score: 0},
		{Factor: FactorMessageNonresponse, Score: 100, Detail: "no replies"},
		{Factor: FactorRemainingSessions, Score: 100, Detail: "2 sessions left"},
		{Factor: FactorGoalProgress, Score: 40, Detail: "progress at 30%"},
	}

	result := Compose(scores)

	// 70*.30 + 0*.25 + 100*.20 + 100*.15 + 40*.10 = 60
	assert.Equal(t, 60, result.Composite)
	assert.Equal(t, TierHigh, result.Tier)
	assert.False(t, result.Suppressed())
	assert.Equal(t, []string{"attendance down 20%", "no replies", "2 sessions left", "progress at 30%"}, result.RiskFactors)
}

func TestComposeAllZeroIsSuppressed(t *testing.T) {
	result := Compose([]FactorScore{
		{Factor: FactorAttendanceDrop, Insufficient: true},
		{Factor: FactorWeightPlateau, Insufficient: true},
		{Factor: FactorMessageNonresponse, Insufficient: true},
		{Factor: FactorRemainingSessions, Score: 0},
		{Factor: FactorGoalProgress, Insufficient: true},
	})

	assert.Zero(t, result.Composite)
	assert.Equal(t, TierLow, result.Tier)
	assert.True(t, result.Suppressed())
	assert.Empty(t, result.RiskFactors)
}

func TestComposeBreakdownOrderIsFixed(t *testing.T) {
	// Scores arrive shuffled; the breakdown still follows the display order.
	scores := []FactorScore{
		{Factor: FactorGoalProgress, Score: 40},
		{Factor: FactorAttendanceDrop, Score: 100},
		{Factor: FactorRemainingSessions, Score: 60},
	}

	result := Compose(scores)
	require.Len(t, result.Breakdown, len(factorOrder))
	for i, f := range factorOrder {
		assert.Equal(t, f, result.Breakdown[i].Factor)
	}

	// Missing factors contribute zero.
	assert.Zero(t, result.Breakdown[1].Score)
	assert.Zero(t, result.Breakdown[2].Weighted)
}

func TestComposeRounding(t *testing.T) {
	// 40*.30 + 40*.25 + 40*.20 + 30*.15 + 0*.10 = 34.5, rounds to 35.
	result := Compose([]FactorScore{
		{Factor: FactorAttendanceDrop, Score: 40},
		{Factor: FactorWeightPlateau, Score: 40},
		{Factor: FactorMessageNonresponse, Score: 40},
		{Factor: FactorRemainingSessions, Score: 30},
	})
	assert.Equal(t, 35, result.Composite)
}
