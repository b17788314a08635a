package repository

import (
	"context"

	"ptpal/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemberRepo handles MongoDB operations for members
type MemberRepo interface {
	GetByID(ctx context.Context, id string) (*model.Member, error)
	ListActiveByTrainer(ctx context.Context, trainerID string) ([]model.Member, error)
}

type memberRepo struct {
	collection *mongo.Collection
}

// NewMemberRepo creates a new member repository
func NewMemberRepo(db *mongo.Database) MemberRepo {
	return &memberRepo{collection: db.Collection("members")}
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListActiveByTrainer(ctx context.Context, trainerID string) ([]model.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID, "status": "active"})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []model.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// TrainerRepo handles MongoDB operations for trainers
type TrainerRepo interface {
	GetByID(ctx context.Context, id string) (*model.Trainer, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	FCMToken(ctx context.Context, trainerID string) (string, error)
}

type trainerRepo struct {
	collection *mongo.Collection
}

// NewTrainerRepo creates a new trainer repository
func NewTrainerRepo(db *mongo.Database) TrainerRepo {
	return &trainerRepo{collection: db.Collection("trainers")}
}

func (r *trainerRepo) GetByID(ctx context.Context, id string) (*model.Trainer, error) {
	var trainer model.Trainer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trainer)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}

func (r *trainerRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": "active"})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trainers []model.Trainer
	if err := cursor.All(ctx, &trainers); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(trainers))
	for _, t := range trainers {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (r *trainerRepo) FCMToken(ctx context.Context, trainerID string) (string, error) {
	trainer, err := r.GetByID(ctx, trainerID)
	if err != nil || trainer == nil {
		return "", err
	}
	return trainer.FCMToken, nil
}
