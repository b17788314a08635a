package repository

import (
	"context"
	"time"

	"ptpal/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventRepo supplies the raw event records the insight engine aggregates.
// All "since" queries are inclusive of the cutoff ($gte), matching the
// engine's half-open [since, now) window convention.
type EventRepo interface {
	SessionsSince(ctx context.Context, trainerID string, memberIDs []string, since time.Time) ([]model.SessionRecord, error)
	BodyRecordsSince(ctx context.Context, memberIDs []string, since time.Time) ([]model.BodyRecord, error)
	MessagesSince(ctx context.Context, trainerID string, memberIDs []string, since time.Time) ([]model.MessageRecord, error)
	InsertBodyRecord(ctx context.Context, record *model.BodyRecord) error
}

type eventRepo struct {
	sessions    *mongo.Collection
	bodyRecords *mongo.Collection
	messages    *mongo.Collection
}

// NewEventRepo creates a new event repository
func NewEventRepo(db *mongo.Database) EventRepo {
	return &eventRepo{
		sessions:    db.Collection("sessions"),
		bodyRecords: db.Collection("body_records"),
		messages:    db.Collection("messages"),
	}
}

func (r *eventRepo) SessionsSince(ctx context.Context, trainerID string, memberIDs []string, since time.Time) ([]model.SessionRecord, error) {
	filter := bson.M{
		"trainerId":   trainerID,
		"memberId":    bson.M{"$in": memberIDs},
		"scheduledAt": bson.M{"$gte": since},
	}
	cursor, err := r.sessions.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.SessionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *eventRepo) BodyRecordsSince(ctx context.Context, memberIDs []string, since time.Time) ([]model.BodyRecord, error) {
	filter := bson.M{
		"memberId":   bson.M{"$in": memberIDs},
		"recordedAt": bson.M{"$gte": since},
	}
	cursor, err := r.bodyRecords.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.BodyRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *eventRepo) MessagesSince(ctx context.Context, trainerID string, memberIDs []string, since time.Time) ([]model.MessageRecord, error) {
	filter := bson.M{
		"trainerId": trainerID,
		"memberId":  bson.M{"$in": memberIDs},
		"sentAt":    bson.M{"$gte": since},
	}
	cursor, err := r.messages.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.MessageRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *eventRepo) InsertBodyRecord(ctx context.Context, record *model.BodyRecord) error {
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.bodyRecords.InsertOne(ctx, record)
	return err
}
