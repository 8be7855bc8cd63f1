package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/7610venki/vehicle-data-mapper/internal/config"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
	"github.com/7610venki/vehicle-data-mapper/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
