package main

import (
	"context"
	"time"

	mongoMigration "fieldsched/internal/migrations/mongo"
	"fieldsched/pkg/config"
)

const (
	JobName    = "mongo-migration"
	jobTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	if cfg.StoreBackend != config.BackendMongo {
		cfg.Log.Info("Store backend is not mongo, nothing to migrate", "store_backend", cfg.StoreBackend)
		return
	}

	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
	cfg.GracefulShutdown()
	if err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
