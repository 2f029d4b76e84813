package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"

	"todo-app-go/internal/config"
	"todo-app-go/internal/db"
	todosdomain "todo-app-go/internal/domain/todos"
	"todo-app-go/internal/repository/inmemory"
	mongotodos "todo-app-go/internal/repository/mongo/todos"
	postgrestodos "todo-app-go/internal/repository/postgres/todos"
	"todo-app-go/pkg/logger"
)

// Store owns the connection behind the configured todo repository.
type Store struct {
	driver string
	repo   todosdomain.Repository
	mongo  *mongo.Client
	gorm   *gorm.DB
}

func OpenStore(ctx context.Context, cfg config.Config, log logger.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := db.NewMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		if err := db.EnsureMongoIndexes(ctx, coll); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Store{driver: cfg.Store.Driver, repo: mongotodos.NewMongo(coll), mongo: client}, nil

	case config.DriverPostgres:
		gormDB, err := db.NewPostgres(cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gormDB, log); err != nil {
			closeGorm(gormDB)
			return nil, err
		}
		return &Store{driver: cfg.Store.Driver, repo: postgrestodos.NewPostgres(gormDB), gorm: gormDB}, nil

	case config.DriverMemory:
		log.Warn("db: using in-memory store, data is lost on exit")
		return &Store{driver: cfg.Store.Driver, repo: inmemory.NewTodoRepository()}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Repo() todosdomain.Repository {
	return s.repo
}

func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s.mongo != nil:
		return s.mongo.Ping(ctx, readpref.Primary())
	case s.gorm != nil:
		sqlDB, err := s.gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	default:
		return nil
	}
}

func (s *Store) Close(ctx context.Context) error {
	switch {
	case s.mongo != nil:
		return s.mongo.Disconnect(ctx)
	case s.gorm != nil:
		sqlDB, err := s.gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	default:
		return nil
	}
}

func closeGorm(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
