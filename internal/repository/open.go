package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/maintenance-api/internal/repository/memory"
	"github.com/noah-isme/maintenance-api/internal/repository/migrations"
	"github.com/noah-isme/maintenance-api/internal/repository/mongostore"
	"github.com/noah-isme/maintenance-api/pkg/config"
	"github.com/noah-isme/maintenance-api/pkg/database"
)

// Open connects the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case "", config.StoreMemory:
		logger.Info("using in-memory store")
		return NewMemoryStore(memory.New()), nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(ctx, db.DB); err != nil {
				_ = db.Close()
				return nil, err
			}
			logger.Info("database migrations applied")
		}
		return NewPostgresStore(db), nil
	case config.StoreMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store, err := mongostore.New(ctx, client, cfg.Mongo.Database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return NewMongoStore(store), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewPostgresStore bundles the sqlx repositories over db.
func NewPostgresStore(db *sqlx.DB) *Store {
	return &Store{
		Driver:    config.StorePostgres,
		Users:     NewUserRepository(db),
		Equipment: NewEquipmentRepository(db),
		Teams:     NewTeamRepository(db),
		Requests:  NewMaintenanceRequestRepository(db),
		Ping:      db.PingContext,
		Close:     func(context.Context) error { return db.Close() },
	}
}

func NewMemoryStore(s *memory.Store) *Store {
	return &Store{
		Driver:    config.StoreMemory,
		Users:     s.Users(),
		Equipment: s.Equipment(),
		Teams:     s.Teams(),
		Requests:  s.Requests(),
		Ping:      s.Ping,
		Close:     s.Close,
	}
}

func NewMongoStore(s *mongostore.Store) *Store {
	return &Store{
		Driver:    config.StoreMongo,
		Users:     s.Users(),
		Equipment: s.Equipment(),
		Teams:     s.Teams(),
		Requests:  s.Requests(),
		Ping:      s.Ping,
		Close:     s.Close,
	}
}
