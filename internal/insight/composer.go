package insight

import "math"

// Tier is the ordinal risk classification of a composite score.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierHigh     Tier = "HIGH"
	TierMedium   Tier = "MEDIUM"
	TierLow      Tier = "LOW"
)

// Fixed factor weights. They must sum to exactly 1.0; composer_test pins
// the table.
var factorWeights = map[Factor]float64{
	FactorAttendanceDrop:     0.30,
	FactorWeightPlateau:      0.25,
	FactorMessageNonresponse: 0.20,
	FactorRemainingSessions:  0.15,
	FactorGoalProgress:       0.10,
}

// factorOrder fixes the presentation order of the risk-factor breakdown.
// It is a display contract, not a ranking by magnitude.
var factorOrder = []Factor{
	FactorAttendanceDrop,
	FactorWeightPlateau,
	FactorMessageNonresponse,
	FactorRemainingSessions,
	FactorGoalProgress,
}

// Contribution is one factor's weighted share of the composite.
type Contribution struct {
	Factor       Factor             `json:"factor"`
	Score        int                `json:"score"`
	Weight       float64            `json:"weight"`
	Weighted     float64            `json:"weighted"`
	Insufficient bool               `json:"insufficient,omitempty"`
	Evidence     map[string]float64 `json:"evidence,omitempty"`
}

// RiskResult is the composed churn-risk assessment for one member.
type RiskResult struct {
	Composite   int            `json:"composite"`
	Tier        Tier           `json:"tier"`
	RiskFactors []string       `json:"riskFactors"`
	Breakdown   []Contribution `json:"breakdown"`
}

// Suppressed reports whether the result is below the emission floor.
// LOW-tier results never become persisted insights.
func (r RiskResult) Suppressed() bool {
	return r.Tier == TierLow
}

// TierFor maps a composite score to its tier, evaluated top-down.
func TierFor(composite int) Tier {
	switch {
	case composite >= 80:
		return TierCritical
	case composite >= 60:
		return TierHigh
	case composite >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// Compose combines factor scores into the weighted composite. Scores may
// arrive in any order; missing factors contribute zero.
func Compose(scores []FactorScore) RiskResult {
	byFactor := make(map[Factor]FactorScore, len(scores))
	for _, s := range scores {
		byFactor[s.Factor] = s
	}

	var sum float64
	result := RiskResult{
		RiskFactors: []string{},
		Breakdown:   make([]Contribution, 0, len(factorOrder)),
	}
	for _, f := range factorOrder {
		s := byFactor[f]
		w := factorWeights[f]
		weighted := float64(s.Score) * w
		sum += weighted
		result.Breakdown = append(result.Breakdown, Contribution{
			Factor:       f,
			Score:        s.Score,
			Weight:       w,
			Weighted:     weighted,
			Insufficient: s.Insufficient,
			Evidence:     s.Evidence,
		})
		if s.Score > 0 && s.Detail != "" {
			result.RiskFactors = append(result.RiskFactors, s.Detail)
		}
	}

	result.Composite = int(math.Round(sum))
	result.Tier = TierFor(result.Composite)
	return result
}
