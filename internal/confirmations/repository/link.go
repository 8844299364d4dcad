package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	confirmationserrors "fieldsched/internal/confirmations/errors"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	LinkCollectionName = "ConfirmationRequestAssignments"
)

type LinkRepository interface {
	CreateMany(ctx context.Context, links []*model.ConfirmationRequestAssignment) error
	FindByRequest(ctx context.Context, requestID string) ([]*model.ConfirmationRequestAssignment, error)
	DeleteByRequests(ctx context.Context, requestIDs []string) (int64, error)
	DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error)
}

type mongoLinkRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLinkRepository(cfg *config.Config) LinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLinkRepository{
		cfg:        cfg,
		collection: db.Collection(LinkCollectionName),
	}
}

func (r *mongoLinkRepository) CreateMany(ctx context.Context, links []*model.ConfirmationRequestAssignment) error {
	if len(links) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	docs := make([]any, 0, len(links))
	for _, link := range links {
		docs = append(docs, link)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return confirmationserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to link confirmation assignments: %w", err)
	}
	for i, id := range result.InsertedIDs {
		links[i].ID = mongotx.InsertedHex(id)
	}
	return nil
}

func (r *mongoLinkRepository) FindByRequest(ctx context.Context, requestID string) ([]*model.ConfirmationRequestAssignment, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return nil, fmt.Errorf("failed to find confirmation assignments: %w", err)
	}
	defer cursor.Close(ctx)

	links := []*model.ConfirmationRequestAssignment{}
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode confirmation assignments: %w", err)
	}
	return links, nil
}

func (r *mongoLinkRepository) DeleteByRequests(ctx context.Context, requestIDs []string) (int64, error) {
	return r.deleteIn(ctx, "request_id", requestIDs)
}

func (r *mongoLinkRepository) DeleteByAssignments(ctx context.Context, assignmentIDs []string) (int64, error) {
	return r.deleteIn(ctx, "assignment_id", assignmentIDs)
}

func (r *mongoLinkRepository) deleteIn(ctx context.Context, field string, values []string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{field: bson.M{"$in": values}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete confirmation assignments: %w", err)
	}
	return result.DeletedCount, nil
}
