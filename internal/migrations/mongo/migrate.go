package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldsched/internal/migrations/mongo/validators"
	"fieldsched/pkg/logger"
)

var (
	ProjectsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	AssignmentsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "engineer_id", Value: 1}, {Key: "project_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "project_id", Value: 1}}},
	}

	AssignmentDaysIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignment_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "engineer_id", Value: 1}, {Key: "date", Value: 1}}},
	}

	StatusHistoryIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignment_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	BookingConflictsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "engineer_id", Value: 1},
			{Key: "is_resolved", Value: 1},
			{Key: "date", Value: 1},
		}},
	}

	ConfirmationRequestsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	ConfirmationLinksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}, {Key: "assignment_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "assignment_id", Value: 1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections maps every collection the repositories use to its schema and
// indexes.
var Collections = map[string]collectionDef{
	"Projects": {
		Indexes:   ProjectsIndexes,
		Validator: validators.ProjectValidator,
	},
	"Assignments": {
		Indexes:   AssignmentsIndexes,
		Validator: validators.AssignmentValidator,
	},
	"AssignmentDays": {
		Indexes:   AssignmentDaysIndexes,
		Validator: validators.AssignmentDayValidator,
	},
	"StatusHistory": {
		Indexes:   StatusHistoryIndexes,
		Validator: validators.StatusHistoryValidator,
	},
	"BookingConflicts": {
		Indexes:   BookingConflictsIndexes,
		Validator: validators.BookingConflictValidator,
	},
	"ConfirmationRequests": {
		Indexes:   ConfirmationRequestsIndexes,
		Validator: validators.ConfirmationRequestValidator,
	},
	"ConfirmationRequestAssignments": {
		Indexes:   ConfirmationLinksIndexes,
		Validator: validators.ConfirmationLinkValidator,
	},
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "collections", len(Collections))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
