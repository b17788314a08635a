package model

import "time"

// InsightType tags what kind of finding an insight carries
type InsightType string

const (
	InsightChurnRisk         InsightType = "churnRisk"
	InsightPTExpiry          InsightType = "ptExpiry"
	InsightPlateauDetection  InsightType = "plateauDetection"
	InsightRenewalLikelihood InsightType = "renewalLikelihood"
	InsightNoshowPattern     InsightType = "noshowPattern"
)

// InsightPriority drives display ordering and notification fan-out
type InsightPriority string

const (
	PriorityHigh   InsightPriority = "high"
	PriorityMedium InsightPriority = "medium"
	PriorityLow    InsightPriority = "low"
)

// Insight is a persisted, trainer-facing analytic finding.
// MemberID is empty for trainer-wide insights (e.g. noshow pattern).
// Insights expire logically: list queries filter on ExpiresAt, nothing
// deletes them.
type Insight struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	TrainerID  string `json:"trainerId" bson:"trainerId"`
	MemberID   string `json:"memberId,omitempty" bson:"memberId,omitempty"`
	MemberName string `json:"memberName,omitempty" bson:"memberName,omitempty"`

	Type     InsightType     `json:"type" bson:"type"`
	Priority InsightPriority `json:"priority" bson:"priority"`

	Title            string                 `json:"title" bson:"title"`
	Message          string                 `json:"message" bson:"message"`
	ActionSuggestion string                 `json:"actionSuggestion,omitempty" bson:"actionSuggestion,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`

	IsRead        bool `json:"isRead" bson:"isRead"`
	IsActionTaken bool `json:"isActionTaken" bson:"isActionTaken"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// DedupKey identifies an insight for the purpose of duplicate suppression.
// Trainer-wide insights key on type alone within the trainer's scope.
func (i *Insight) DedupKey() string {
	if i.MemberID == "" {
		return string(i.Type) + "-general"
	}
	return string(i.Type) + "-" + i.MemberID
}
