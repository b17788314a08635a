// Seed loads a demo trainer with three members in distinct states: one
// disengaging, one progressing well, one close to enrollment expiry. Useful
// for exercising the insight feed against a local stack.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ptpal/internal/config"
	"ptpal/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	now := time.Now()

	trainerID := "trainer_demo"
	if _, err := db.Collection("trainers").InsertOne(ctx, model.Trainer{
		ID: trainerID, Name: "Demo Trainer", Status: "active", CreatedAt: now,
	}); err != nil {
		log.Fatalf("Failed to insert trainer: %v", err)
	}

	atRisk := member(trainerID, "Kim Jiwoo", model.GoalReduceWeight, 70, 3, now.AddDate(0, 0, 20))
	healthy := member(trainerID, "Lee Minseo", model.GoalIncreaseMuscle, 78, 14, now.AddDate(0, 2, 0))
	expiring := member(trainerID, "Park Dahyun", model.GoalGeneralFitness, 0, 5, now.AddDate(0, 0, 5))

	members := []interface{}{atRisk, healthy, expiring}
	if _, err := db.Collection("members").InsertMany(ctx, members); err != nil {
		log.Fatalf("Failed to insert members: %v", err)
	}

	var sessions []interface{}
	var records []interface{}
	var messages []interface{}

	// At-risk: full attendance a month ago, then a collapse, flat weight,
	// and silence in chat.
	for i := 0; i < 8; i++ {
		sessions = append(sessions, session(atRisk, now.AddDate(0, 0, -(15+i)), model.SessionCompleted))
	}
	sessions = append(sessions,
		session(atRisk, now.AddDate(0, 0, -6), model.SessionNoShow),
		session(atRisk, now.AddDate(0, 0, -3), model.SessionCompleted),
	)
	for w := 0; w < 7; w++ {
		records = append(records, bodyRecord(atRisk, now.AddDate(0, 0, -w*7), 80.2-0.05*float64(w)))
	}
	for i := 0; i < 4; i++ {
		messages = append(messages, message(atRisk, model.SenderTrainer, now.AddDate(0, 0, -(2+i))))
	}

	// Healthy: steady attendance, weight trending up toward the target,
	// chatty in both directions.
	for i := 0; i < 12; i++ {
		sessions = append(sessions, session(healthy, now.AddDate(0, 0, -i*2-1), model.SessionCompleted))
	}
	for w := 0; w < 7; w++ {
		records = append(records, bodyRecord(healthy, now.AddDate(0, 0, -w*7), 74.5-0.4*float64(w)))
	}
	for i := 0; i < 6; i++ {
		role := model.SenderTrainer
		if i%2 == 1 {
			role = model.SenderMember
		}
		messages = append(messages, message(healthy, role, now.AddDate(0, 0, -i)))
	}

	// Expiring: decent history, unused sessions, end date days away.
	for i := 0; i < 10; i++ {
		sessions = append(sessions, session(expiring, now.AddDate(0, 0, -i*4-2), model.SessionCompleted))
	}

	if _, err := db.Collection("sessions").InsertMany(ctx, sessions); err != nil {
		log.Fatalf("Failed to insert sessions: %v", err)
	}
	if _, err := db.Collection("body_records").InsertMany(ctx, records); err != nil {
		log.Fatalf("Failed to insert body records: %v", err)
	}
	if len(messages) > 0 {
		if _, err := db.Collection("messages").InsertMany(ctx, messages); err != nil {
			log.Fatalf("Failed to insert messages: %v", err)
		}
	}

	fmt.Printf("Seeded trainer %s with %d members, %d sessions, %d body records, %d messages\n",
		trainerID, len(members), len(sessions), len(records), len(messages))
}

func member(trainerID, name string, goal model.Goal, target float64, remaining int, end time.Time) model.Member {
	return model.Member{
		ID:                "member_" + uuid.New().String()[:8],
		TrainerID:         trainerID,
		Name:              name,
		Status:            "active",
		Goal:              goal,
		TargetWeight:      target,
		RemainingSessions: remaining,
		TotalSessions:     30,
		StartDate:         end.AddDate(0, -3, 0),
		EndDate:           end,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

func session(m model.Member, at time.Time, status model.SessionStatus) model.SessionRecord {
	return model.SessionRecord{
		ID:          primitive.NewObjectID().Hex(),
		MemberID:    m.ID,
		TrainerID:   m.TrainerID,
		ScheduledAt: at,
		Status:      status,
	}
}

func bodyRecord(m model.Member, at time.Time, weight float64) model.BodyRecord {
	return model.BodyRecord{
		ID:         primitive.NewObjectID().Hex(),
		MemberID:   m.ID,
		RecordedAt: at,
		Weight:     weight,
	}
}

func message(m model.Member, role model.SenderRole, at time.Time) model.MessageRecord {
	return model.MessageRecord{
		ID:        primitive.NewObjectID().Hex(),
		MemberID:  m.ID,
		TrainerID: m.TrainerID,
		Sender:    role,
		SentAt:    at,
	}
}
