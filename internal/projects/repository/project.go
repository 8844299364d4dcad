package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	projectserrors "fieldsched/internal/projects/errors"
	"fieldsched/pkg/config"
	mongotx "fieldsched/pkg/db/mongo"
	"fieldsched/pkg/model"
)

const (
	CollectionName = "Projects"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error)
	UpdateDates(ctx context.Context, id string, startDate, endDate string) error
	UpdateScheduleStatus(ctx context.Context, id string, status model.BookingStatus) error
	Delete(ctx context.Context, id string) error
}

type mongoProjectRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProjectRepository(cfg *config.Config) ProjectRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProjectRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProjectRepository) Create(ctx context.Context, project *model.Project) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	project.ID = mongotx.InsertedHex(result.InsertedID)
	return nil
}

func (r *mongoProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", projectserrors.ErrInvalidID, id)
	}

	var project model.Project
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&project); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, projectserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &project, nil
}

// FindByIDs returns the projects that exist among ids, in no particular order.
func (r *mongoProjectRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error) {
	if len(ids) == 0 {
		return []*model.Project{}, nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return nil, projectserrors.ErrInvalidID
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []*model.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (r *mongoProjectRepository) UpdateDates(ctx context.Context, id string, startDate, endDate string) error {
	return r.update(ctx, id, bson.M{
		"start_date": startDate,
		"end_date":   endDate,
	})
}

func (r *mongoProjectRepository) UpdateScheduleStatus(ctx context.Context, id string, status model.BookingStatus) error {
	return r.update(ctx, id, bson.M{"schedule_status": status})
}

func (r *mongoProjectRepository) update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", projectserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return projectserrors.ErrNotFound
	}
	return nil
}

func (r *mongoProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.MongoQueryTimeout)
	defer cancel()

	objectID, err := mongotx.ObjectID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", projectserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return projectserrors.ErrNotFound
	}
	return nil
}
