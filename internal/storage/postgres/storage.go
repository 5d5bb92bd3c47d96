package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mcoot/rpsarena/internal/storage"
)

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db          *gorm.DB
	sqlDB       *sql.DB
	lockTimeout time.Duration
}

var _ storage.Storage = (*Storage)(nil)

// WithTx runs fn inside a database transaction
func (s *Storage) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		if ms := s.lockTimeout.Milliseconds(); ms > 0 {
			if err := gtx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)).Error; err != nil {
				return err
			}
		}
		return fn(ctx, &tx{db: gtx})
	})
	return classify(err)
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.sqlDB.Close()
}
