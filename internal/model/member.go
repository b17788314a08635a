package model

import "time"

// Goal is a member's enrollment goal
type Goal string

const (
	GoalReduceWeight   Goal = "reduce_weight"
	GoalIncreaseMuscle Goal = "increase_muscle"
	GoalGeneralFitness Goal = "general_fitness"
	GoalRehabilitation Goal = "rehabilitation"
)

// Member is a trainee enrolled with a trainer
type Member struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	TrainerID string `json:"trainerId" bson:"trainerId"`
	Name      string `json:"name" bson:"name"`
	Status    string `json:"status" bson:"status"` // "active", "paused", "ended"

	Goal         Goal    `json:"goal" bson:"goal"`
	TargetWeight float64 `json:"targetWeight,omitempty" bson:"targetWeight,omitempty"` // kg, 0 = not set

	RemainingSessions int `json:"remainingSessions" bson:"remainingSessions"`
	TotalSessions     int `json:"totalSessions" bson:"totalSessions"`

	StartDate time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate   time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"` // enrollment end, zero = open-ended

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Trainer is the owner of a set of members
type Trainer struct {
	ID       string `json:"id" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Status   string `json:"status" bson:"status"` // "active", "inactive"
	FCMToken string `json:"-" bson:"fcmToken,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
