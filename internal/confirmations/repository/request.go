package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	confirmationserrors "fieldsched/internal/confirmations/errors"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	RequestCollectionName = "ConfirmationRequests"
)

// RequestRepository stores confirmation requests. Every status-changing write
// is conditional on status == pending and reports ErrNotPending when the
// guard fails.
type RequestRepository interface {
	Create(ctx context.Context, request *model.ConfirmationRequest) error
	FindByID(ctx context.Context, id string) (*model.ConfirmationRequest, error)
	FindByToken(ctx context.Context, token string) (*model.ConfirmationRequest, error)
	FindByProject(ctx context.Context, projectID string) ([]*model.ConfirmationRequest, error)
	MarkResponded(ctx context.Context, id string, status model.ConfirmationStatus, at time.Time, declineReason *string) error
	MarkExpired(ctx context.Context, id string) error
	// Delete removes a pending request.
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) ([]string, error)
}

type mongoRequestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRequestRepository(cfg *config.Config) RequestRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRequestRepository{
		cfg:        cfg,
		collection: db.Collection(RequestCollectionName),
	}
}

func (r *mongoRequestRepository) Create(ctx context.Context, request *model.ConfirmationRequest) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return confirmationserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create confirmation request: %w", err)
	}
	request.ID = mongotx.InsertedHex(result.InsertedID)
	return nil
}

func (r *mongoRequestRepository) FindByID(ctx context.Context, id string) (*model.ConfirmationRequest, error) {
	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", confirmationserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoRequestRepository) FindByToken(ctx context.Context, token string) (*model.ConfirmationRequest, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *mongoRequestRepository) findOne(ctx context.Context, filter bson.M) (*model.ConfirmationRequest, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	var request model.ConfirmationRequest
	if err := r.collection.FindOne(ctx, filter).Decode(&request); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, confirmationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find confirmation request: %w", err)
	}
	return &request, nil
}

func (r *mongoRequestRepository) FindByProject(ctx context.Context, projectID string) ([]*model.ConfirmationRequest, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmation requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []*model.ConfirmationRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode confirmation requests: %w", err)
	}
	return requests, nil
}

func (r *mongoRequestRepository) MarkResponded(ctx context.Context, id string, status model.ConfirmationStatus, at time.Time, declineReason *string) error {
	fields := bson.M{
		"status":       status,
		"responded_at": at,
	}
	if declineReason != nil {
		fields["decline_reason"] = *declineReason
	}
	return r.transition(ctx, id, fields)
}

func (r *mongoRequestRepository) MarkExpired(ctx context.Context, id string) error {
	return r.transition(ctx, id, bson.M{"status": model.ConfirmationExpired})
}

func (r *mongoRequestRepository) transition(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", confirmationserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.ConfirmationPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update confirmation request: %w", err)
	}
	if result.MatchedCount == 0 {
		return confirmationserrors.ErrNotPending
	}
	return nil
}

func (r *mongoRequestRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", confirmationserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "status": model.ConfirmationPending})
	if err != nil {
		return fmt.Errorf("failed to delete confirmation request: %w", err)
	}
	if result.DeletedCount == 0 {
		return confirmationserrors.ErrNotPending
	}
	return nil
}

// DeleteByProject removes every request of a project regardless of status
// and returns the removed ids.
func (r *mongoRequestRepository) DeleteByProject(ctx context.Context, projectID string) ([]string, error) {
	requests, err := r.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []string{}, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return nil, fmt.Errorf("failed to delete confirmation requests: %w", err)
	}

	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.ID)
	}
	return ids, nil
}
