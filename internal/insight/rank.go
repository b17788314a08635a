package insight

import (
	"sort"

	"ptpal/internal/model"
)

// Per-type display weights for the trainer feed. Higher sorts first.
var typeWeights = map[model.InsightType]int{
	model.InsightChurnRisk:         100,
	model.InsightPTExpiry:          90,
	model.InsightNoshowPattern:     85,
	model.InsightPlateauDetection:  55,
	model.InsightRenewalLikelihood: 50,
}

var priorityScores = map[model.InsightPriority]int{
	model.PriorityHigh:   30,
	model.PriorityMedium: 20,
	model.PriorityLow:    10,
}

// RankScore is the feed ordering score: type weight plus priority score.
func RankScore(i *model.Insight) int {
	return typeWeights[i.Type] + priorityScores[i.Priority]
}

// SortForFeed orders insights for the trainer dashboard: rank score
// descending, newest first within equal rank.
func SortForFeed(insights []model.Insight) {
	sort.SliceStable(insights, func(a, b int) bool {
		sa, sb := RankScore(&insights[a]), RankScore(&insights[b])
		if sa != sb {
			return sa > sb
		}
		return insights[a].CreatedAt.After(insights[b].CreatedAt)
	})
}
