// Package store reconciles scraped aggregates into the relational schema.
//
// Every write operation runs in its own database transaction covering one
// entity family. Upserts are keyed on the natural identifiers of the
// source so that re-running a scrape converges instead of duplicating rows.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrPersistence wraps every failure of SaveScrapedData and SaveGroupOnlyData.
	ErrPersistence = errors.New("persistence failed")
	// ErrInvariant is returned for rows that would violate a stored invariant.
	ErrInvariant = errors.New("invariant violated")
)

// Repository owns the database handle.
type Repository struct {
	db *gorm.DB
}

// Open connects to Postgres at dsn.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: connecting: %w", err)
	}
	return &Repository{db: db}, nil
}

// New wraps an existing handle, e.g. an SQLite database in tests.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the handle for read-only consumers such as the HTTP API.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("Migrate: %w", err)
	}
	return nil
}

func (r *Repository) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
