package model

import "time"

// SessionStatus is the lifecycle state of a PT session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionNoShow    SessionStatus = "noshow"
)

// SessionRecord is one scheduled PT session
type SessionRecord struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	MemberID    string        `json:"memberId" bson:"memberId"`
	TrainerID   string        `json:"trainerId" bson:"trainerId"`
	ScheduledAt time.Time     `json:"scheduledAt" bson:"scheduledAt"`
	Status      SessionStatus `json:"status" bson:"status"`
}

// BodyRecord is one body-composition sample
type BodyRecord struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	MemberID   string    `json:"memberId" bson:"memberId"`
	RecordedAt time.Time `json:"recordedAt" bson:"recordedAt"`
	Weight     float64   `json:"weight" bson:"weight"` // kg
	BodyFat    float64   `json:"bodyFat,omitempty" bson:"bodyFat,omitempty"`
}

// SenderRole identifies who sent a chat message
type SenderRole string

const (
	SenderTrainer SenderRole = "trainer"
	SenderMember  SenderRole = "member"
)

// MessageRecord is one chat message between trainer and member
type MessageRecord struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	MemberID  string     `json:"memberId" bson:"memberId"`
	TrainerID string     `json:"trainerId" bson:"trainerId"`
	Sender    SenderRole `json:"sender" bson:"sender"`
	SentAt    time.Time  `json:"sentAt" bson:"sentAt"`
}
