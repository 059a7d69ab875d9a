package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/buildwise-ai/buildwise-backend/config"
	adminrepo "github.com/buildwise-ai/buildwise-backend/internal/admin/repository"
	catalogrepo "github.com/buildwise-ai/buildwise-backend/internal/catalog/repository"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	projectsrepo "github.com/buildwise-ai/buildwise-backend/internal/projects/repository"
	usersrepo "github.com/buildwise-ai/buildwise-backend/internal/users/repository"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Stores holds the opened backends. Exactly one of Mongo and SQL is set,
// per STORE_DRIVER. Redis is nil when it could not be reached.
type Stores struct {
	Driver      string
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	SQL         *sql.DB
	Redis       *redis.Client
}

type Repositories struct {
	Users    usersrepo.Repository
	Projects projectsrepo.Repository
	Catalog  catalogrepo.Repository
	Admin    adminrepo.Repository
}

// OpenStores opens the document store selected by cfg and, best effort,
// redis. A primary store failure is fatal; a redis failure only disables
// email verification.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{Driver: cfg.Store.Driver}

	switch cfg.Store.Driver {
	case DriverMongo:
		client, db, err := OpenMongo(ctx, MongoOptions{URI: cfg.Store.MongoURI, Database: cfg.Store.MongoDB})
		if err != nil {
			return nil, err
		}
		s.MongoClient, s.Mongo = client, db
	case DriverPostgres:
		db, err := OpenDB(ctx, DBOptions{DSN: cfg.Database.PostgresDSN()})
		if err != nil {
			return nil, err
		}
		s.SQL = db
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	rdb, err := OpenRedis(ctx, RedisOptions{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		logging.FromContext(ctx).Warn("redis unavailable, email verification disabled", "addr", cfg.Redis.Addr, "error", err)
	} else {
		s.Redis = rdb
	}
	return s, nil
}

// Repositories returns the repository set for the selected driver.
func (s *Stores) Repositories() Repositories {
	if s.Driver == DriverPostgres {
		return Repositories{
			Users:    usersrepo.NewPostgresRepository(s.SQL),
			Projects: projectsrepo.NewPostgresRepository(s.SQL),
			Catalog:  catalogrepo.NewPostgresRepository(s.SQL),
			Admin:    adminrepo.NewPostgresRepository(s.SQL),
		}
	}
	return Repositories{
		Users:    usersrepo.NewMongoRepository(s.Mongo),
		Projects: projectsrepo.NewMongoRepository(s.Mongo),
		Catalog:  catalogrepo.NewMongoRepository(s.Mongo),
		Admin:    adminrepo.NewMongoRepository(s.Mongo),
	}
}

// EnsureIndexes creates the Mongo indexes. Postgres indexes come from the
// migrations.
func (s *Stores) EnsureIndexes(ctx context.Context) error {
	if s.Driver != DriverMongo {
		return nil
	}
	if err := usersrepo.NewMongoRepository(s.Mongo).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := projectsrepo.NewMongoRepository(s.Mongo).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("projects indexes: %w", err)
	}
	if err := adminrepo.NewMongoRepository(s.Mongo).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("admin request indexes: %w", err)
	}
	return nil
}

// PingStore pings whichever primary store is open.
func (s *Stores) PingStore(ctx context.Context) error {
	if s.SQL != nil {
		return s.SQL.PingContext(ctx)
	}
	if s.MongoClient != nil {
		return s.MongoClient.Ping(ctx, readpref.Primary())
	}
	return errors.New("no store open")
}

func (s *Stores) PingRedis(ctx context.Context) error {
	if s.Redis == nil {
		return errors.New("redis not configured")
	}
	return s.Redis.Ping(ctx).Err()
}

func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.SQL != nil {
		errs = append(errs, s.SQL.Close())
	}
	if s.MongoClient != nil {
		errs = append(errs, s.MongoClient.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
