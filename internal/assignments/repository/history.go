package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	HistoryCollectionName = "StatusHistory"
)

// HistoryRepository is append-only; rows are only removed together with
// their project.
type HistoryRepository interface {
	InsertMany(ctx context.Context, rows []*model.StatusHistory) error
	FindByAssignment(ctx context.Context, assignmentID string) ([]*model.StatusHistory, error)
	DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error)
}

type mongoHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoHistoryRepository(cfg *config.Config) HistoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHistoryRepository{
		cfg:        cfg,
		collection: db.Collection(HistoryCollectionName),
	}
}

func (r *mongoHistoryRepository) InsertMany(ctx context.Context, rows []*model.StatusHistory) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	docs := make([]any, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	for i, id := range result.InsertedIDs {
		rows[i].ID = mongotx.InsertedHex(id)
	}
	return nil
}

func (r *mongoHistoryRepository) FindByAssignment(ctx context.Context, assignmentID string) ([]*model.StatusHistory, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"assignment_id": assignmentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find status history: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []*model.StatusHistory{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %w", err)
	}
	return rows, nil
}

func (r *mongoHistoryRepository) DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error) {
	if len(assignmentIDs) == 0 {
		return 0, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"assignment_id": bson.M{"$in": assignmentIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete status history: %w", err)
	}
	return result.DeletedCount, nil
}
