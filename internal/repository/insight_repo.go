package repository

import (
	"context"
	"time"

	"ptpal/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsightRepo handles MongoDB operations for persisted insights
type InsightRepo interface {
	Save(ctx context.Context, insight *model.Insight) error
	// ExistsSince reports whether an insight with the same dedup key was
	// created at or after cutoff. memberID may be empty (trainer-wide).
	ExistsSince(ctx context.Context, trainerID, memberID string, insightType model.InsightType, cutoff time.Time) (bool, error)
	// KeysSince returns the dedup keys of all insights the trainer got
	// since cutoff, for batch sweeps.
	KeysSince(ctx context.Context, trainerID string, cutoff time.Time) (map[string]bool, error)
	ListUnexpired(ctx context.Context, trainerID string, now time.Time) ([]model.Insight, error)
	MarkRead(ctx context.Context, id string) error
	MarkActionTaken(ctx context.Context, id string) error
}

type insightRepo struct {
	collection *mongo.Collection
}

// NewInsightRepo creates a new insight repository
func NewInsightRepo(db *mongo.Database) InsightRepo {
	return &insightRepo{collection: db.Collection("insights")}
}

func (r *insightRepo) Save(ctx context.Context, insight *model.Insight) error {
	if insight.ID == "" {
		insight.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, insight)
	return err
}

func (r *insightRepo) ExistsSince(ctx context.Context, trainerID, memberID string, insightType model.InsightType, cutoff time.Time) (bool, error) {
	filter := bson.M{
		"trainerId": trainerID,
		"type":      insightType,
		"createdAt": bson.M{"$gte": cutoff},
	}
	if memberID == "" {
		filter["memberId"] = bson.M{"$exists": false}
	} else {
		filter["memberId"] = memberID
	}

	err := r.collection.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *insightRepo) KeysSince(ctx context.Context, trainerID string, cutoff time.Time) (map[string]bool, error) {
	filter := bson.M{
		"trainerId": trainerID,
		"createdAt": bson.M{"$gte": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	keys := make(map[string]bool)
	for cursor.Next(ctx) {
		var insight model.Insight
		if err := cursor.Decode(&insight); err != nil {
			return nil, err
		}
		keys[insight.DedupKey()] = true
	}
	return keys, cursor.Err()
}

func (r *insightRepo) ListUnexpired(ctx context.Context, trainerID string, now time.Time) ([]model.Insight, error) {
	filter := bson.M{
		"trainerId": trainerID,
		"expiresAt": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var insights []model.Insight
	if err := cursor.All(ctx, &insights); err != nil {
		return nil, err
	}
	return insights, nil
}

func (r *insightRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isRead": true}})
	return err
}

func (r *insightRepo) MarkActionTaken(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActionTaken": true}})
	return err
}
