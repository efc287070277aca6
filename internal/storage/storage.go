package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/LJTian/NewsETL/internal/logger"
)

// Article is a persisted clean article, keyed by uid.
type Article struct {
	UID          string `gorm:"primaryKey;size:32" json:"uid"`
	URL          string `gorm:"type:text" json:"url"`
	Host         string `gorm:"size:255;index" json:"host"`
	Title        string `gorm:"type:text" json:"title"`
	Body         string `gorm:"type:text" json:"body"`
	NewspaperID  string `gorm:"size:64;index" json:"newspaperId"`
	NTokensTitle int    `json:"nTokensTitle"`
	NTokensBody  int    `json:"nTokensBody"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoadRun records one committed load batch.
type LoadRun struct {
	ID       string            `gorm:"primaryKey;size:36" json:"id"`
	File     string            `gorm:"size:512" json:"file"`
	Articles int               `json:"articles"`
	Stats    datatypes.JSONMap `gorm:"type:jsonb" json:"stats"`

	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   logger.Logger
}

// NewStore connects to Postgres and Redis and makes sure the schema exists.
// An unreachable Redis only disables caching.
func NewStore(dsn, redisAddr string, log logger.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := NewStoreWithDB(db, nil, log)
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, list cache disabled", logger.String("addr", redisAddr), logger.Error(err))
			_ = rdb.Close()
		} else {
			s.Redis = rdb
		}
	}

	return s, nil
}

// NewStoreWithDB wraps existing clients; rdb may be nil.
func NewStoreWithDB(db *gorm.DB, rdb *redis.Client, log logger.Logger) *Store {
	return &Store{DB: db, Redis: rdb, log: log}
}

// Migrate creates or updates the tables. Safe to call on an initialized store.
func (s *Store) Migrate() error {
	if err := s.DB.AutoMigrate(&Article{}, &LoadRun{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close releases the database and Redis connections.
func (s *Store) Close() error {
	var errs []error
	if sqlDB, err := s.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}
