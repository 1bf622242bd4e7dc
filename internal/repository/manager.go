package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"inventory/m/internal/dbx"
)

// SQLManager is the sqlx-backed Manager.
type SQLManager struct {
	db *sqlx.DB
}

func NewSQLManager(db *sqlx.DB) *SQLManager {
	return &SQLManager{db: db}
}

func (m *SQLManager) Repos() Repositories {
	return bind(m.db)
}

func (m *SQLManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

func bind(db dbx.DBTX) Repositories {
	return Repositories{
		Users:      &sqlUsers{db: db},
		Stores:     &sqlStores{db: db},
		Categories: &sqlCategories{db: db},
		Items:      &sqlItems{db: db},
		Logs:       &sqlLogs{db: db},
	}
}
