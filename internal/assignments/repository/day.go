package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	assignmentserrors "fieldsched/internal/assignments/errors"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	DayCollectionName = "AssignmentDays"
)

type DayRepository interface {
	CreateMany(ctx context.Context, days []*model.AssignmentDay) error
	FindByAssignment(ctx context.Context, assignmentID string) ([]*model.AssignmentDay, error)
	FindByAssignments(ctx context.Context, assignmentIDs []string) ([]*model.AssignmentDay, error)
	// FindByEngineerInRange returns the engineer's days within [start, end],
	// skipping excludeAssignmentID when it is set.
	FindByEngineerInRange(ctx context.Context, engineerID, start, end, excludeAssignmentID string) ([]*model.AssignmentDay, error)
	UpdateTimes(ctx context.Context, assignmentID, date, startTime, endTime string) error
	Delete(ctx context.Context, assignmentID, date string) error
	DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error)
}

type mongoDayRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDayRepository(cfg *config.Config) DayRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDayRepository{
		cfg:        cfg,
		collection: db.Collection(DayCollectionName),
	}
}

func (r *mongoDayRepository) CreateMany(ctx context.Context, days []*model.AssignmentDay) error {
	if len(days) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(days))
	for _, day := range days {
		day.CreatedAt = now
		docs = append(docs, day)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return assignmentserrors.ErrDuplicateDay
		}
		return fmt.Errorf("failed to create assignment days: %w", err)
	}
	for i, id := range result.InsertedIDs {
		days[i].ID = mongotx.InsertedHex(id)
	}
	return nil
}

func (r *mongoDayRepository) FindByAssignment(ctx context.Context, assignmentID string) ([]*model.AssignmentDay, error) {
	return r.find(ctx, bson.M{"assignment_id": assignmentID})
}

func (r *mongoDayRepository) FindByAssignments(ctx context.Context, assignmentIDs []string) ([]*model.AssignmentDay, error) {
	if len(assignmentIDs) == 0 {
		return []*model.AssignmentDay{}, nil
	}
	return r.find(ctx, bson.M{"assignment_id": bson.M{"$in": assignmentIDs}})
}

func (r *mongoDayRepository) FindByEngineerInRange(ctx context.Context, engineerID, start, end, excludeAssignmentID string) ([]*model.AssignmentDay, error) {
	filter := bson.M{
		"engineer_id": engineerID,
		"date":        bson.M{"$gte": start, "$lte": end},
	}
	if excludeAssignmentID != "" {
		filter["assignment_id"] = bson.M{"$ne": excludeAssignmentID}
	}
	return r.find(ctx, filter)
}

func (r *mongoDayRepository) find(ctx context.Context, filter bson.M) ([]*model.AssignmentDay, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "assignment_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignment days: %w", err)
	}
	defer cursor.Close(ctx)

	days := []*model.AssignmentDay{}
	if err := cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode assignment days: %w", err)
	}
	return days, nil
}

func (r *mongoDayRepository) UpdateTimes(ctx context.Context, assignmentID, date, startTime, endTime string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	filter := bson.M{"assignment_id": assignmentID, "date": date}
	update := bson.M{"$set": bson.M{"start_time": startTime, "end_time": endTime}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update assignment day: %w", err)
	}
	if result.MatchedCount == 0 {
		return assignmentserrors.ErrDayNotFound
	}
	return nil
}

func (r *mongoDayRepository) Delete(ctx context.Context, assignmentID, date string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"assignment_id": assignmentID, "date": date})
	if err != nil {
		return fmt.Errorf("failed to delete assignment day: %w", err)
	}
	if result.DeletedCount == 0 {
		return assignmentserrors.ErrDayNotFound
	}
	return nil
}

func (r *mongoDayRepository) DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error) {
	if len(assignmentIDs) == 0 {
		return 0, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"assignment_id": bson.M{"$in": assignmentIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignment days: %w", err)
	}
	return result.DeletedCount, nil
}
