package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	conflictserrors "fieldsched/internal/conflicts/errors"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	CollectionName = "BookingConflicts"
)

type ConflictRepository interface {
	CreateMany(ctx context.Context, conflicts []*model.BookingConflict) error
	FindByID(ctx context.Context, id string) (*model.BookingConflict, error)
	// FindUnresolved lists open conflicts, for one engineer or for everyone
	// when engineerID is empty.
	FindUnresolved(ctx context.Context, engineerID string) ([]*model.BookingConflict, error)
	// MarkResolved resolves an open conflict. It fails with ErrAlreadyResolved
	// when the conflict was resolved first by someone else.
	MarkResolved(ctx context.Context, id, reason, resolvedBy string, at time.Time) error
}

type mongoConflictRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoConflictRepository(cfg *config.Config) ConflictRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoConflictRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoConflictRepository) CreateMany(ctx context.Context, conflicts []*model.BookingConflict) error {
	if len(conflicts) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	docs := make([]any, 0, len(conflicts))
	for _, c := range conflicts {
		docs = append(docs, c)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create booking conflicts: %w", err)
	}
	for i, id := range result.InsertedIDs {
		conflicts[i].ID = mongotx.InsertedHex(id)
	}
	return nil
}

func (r *mongoConflictRepository) FindByID(ctx context.Context, id string) (*model.BookingConflict, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", conflictserrors.ErrInvalidID, id)
	}

	var conflict model.BookingConflict
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&conflict); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, conflictserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking conflict: %w", err)
	}
	return &conflict, nil
}

func (r *mongoConflictRepository) FindUnresolved(ctx context.Context, engineerID string) ([]*model.BookingConflict, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	filter := bson.M{"is_resolved": false}
	if engineerID != "" {
		filter["engineer_id"] = engineerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	conflicts := []*model.BookingConflict{}
	if err := cursor.All(ctx, &conflicts); err != nil {
		return nil, fmt.Errorf("failed to decode booking conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *mongoConflictRepository) MarkResolved(ctx context.Context, id, reason, resolvedBy string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", conflictserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "is_resolved": false}
	update := bson.M{"$set": bson.M{
		"is_resolved":     true,
		"override_reason": reason,
		"resolved_by":     resolvedBy,
		"resolved_at":     at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resolve booking conflict: %w", err)
	}
	if result.MatchedCount == 0 {
		return conflictserrors.ErrAlreadyResolved
	}
	return nil
}
