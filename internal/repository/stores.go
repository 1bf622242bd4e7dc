package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inventory/m/domain"
	"inventory/m/internal/dbx"
)

type sqlStores struct {
	db dbx.DBTX
}

func (r *sqlStores) Create(ctx context.Context, store *domain.Store) (*domain.Store, error) {
	s := domain.Store{ID: uuid.NewString(), Name: store.Name, Address: store.Address}
	query := r.db.Rebind(`INSERT INTO stores (id, name, address, created_at) VALUES (?, ?, ?, ?) RETURNING created_at`)
	if err := r.db.QueryRowxContext(ctx, query, s.ID, s.Name, s.Address, time.Now().UTC()).Scan(&s.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert store: %w", err)
	}
	return &s, nil
}

func (r *sqlStores) Get(ctx context.Context, id string) (*domain.Store, error) {
	var s domain.Store
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT id, name, address, created_at FROM stores WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select store: %w", err)
	}
	return &s, nil
}

func (r *sqlStores) Update(ctx context.Context, store *domain.Store) (*domain.Store, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE stores SET name = ?, address = ? WHERE id = ?`), store.Name, store.Address, store.ID)
	if err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update store: %w", err)
	} else if n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, store.ID)
}

func (r *sqlStores) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "stores", id)
}

func (r *sqlStores) List(ctx context.Context) ([]domain.Store, error) {
	stores := []domain.Store{}
	if err := r.db.SelectContext(ctx, &stores, `SELECT id, name, address, created_at FROM stores ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}
