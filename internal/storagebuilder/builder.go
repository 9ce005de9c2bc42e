package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarkin/calendar/internal/storage"
	memorystorage "github.com/dmarkin/calendar/internal/storage/memory"
	sqlstorage "github.com/dmarkin/calendar/internal/storage/sql"
)

type Config struct {
	StorageType string
	Database    sqlstorage.Config
}

func New(config Config) (storage.Storage, error) {
	switch config.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "sqlite":
		db := config.Database
		db.Driver = "sqlite3"
		return connect(sqlstorage.New(db))
	case "postgres":
		db := config.Database
		db.Driver = "postgres"
		return connect(sqlstorage.New(db))
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}
}

func connect(s *sqlstorage.Storage) (storage.Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return s, nil
}
