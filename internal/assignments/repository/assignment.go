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
	CollectionName = "Assignments"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Assignment, error)
	FindByProject(ctx context.Context, projectID string) ([]*model.Assignment, error)
	// UpdateStatusMany sets status on every listed assignment in one write and
	// returns how many matched.
	UpdateStatusMany(ctx context.Context, ids []string, status model.BookingStatus) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
}

type mongoAssignmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAssignmentRepository(cfg *config.Config) AssignmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAssignmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return assignmentserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	assignment.ID = mongotx.InsertedHex(result.InsertedID)
	return nil
}

func (r *mongoAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", assignmentserrors.ErrInvalidID, id)
	}

	var assignment model.Assignment
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&assignment); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, assignmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return &assignment, nil
}

func (r *mongoAssignmentRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Assignment, error) {
	if len(ids) == 0 {
		return []*model.Assignment{}, nil
	}

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return nil, assignmentserrors.ErrInvalidID
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
}

func (r *mongoAssignmentRepository) FindByProject(ctx context.Context, projectID string) ([]*model.Assignment, error) {
	return r.find(ctx, bson.M{"project_id": projectID})
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M) ([]*model.Assignment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer cursor.Close(ctx)

	assignments := []*model.Assignment{}
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %w", err)
	}
	return assignments, nil
}

func (r *mongoAssignmentRepository) UpdateStatusMany(ctx context.Context, ids []string, status model.BookingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return 0, assignmentserrors.ErrInvalidID
	}

	update := bson.M{"$set": bson.M{
		"booking_status": status,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}}
	result, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": objectIDs}}, update)
	if err != nil {
		return 0, fmt.Errorf("failed to update assignment status: %w", err)
	}
	return result.MatchedCount, nil
}

func (r *mongoAssignmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", assignmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if result.DeletedCount == 0 {
		return assignmentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAssignmentRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete project assignments: %w", err)
	}
	return result.DeletedCount, nil
}
