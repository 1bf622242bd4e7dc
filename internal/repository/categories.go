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

const categoryColumns = `id, name, store_id, created_at`

type sqlCategories struct {
	db dbx.DBTX
}

func (r *sqlCategories) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	c := domain.Category{ID: uuid.NewString(), Name: category.Name, StoreID: category.StoreID}
	query := r.db.Rebind(`INSERT INTO categories (id, name, store_id, created_at) VALUES (?, ?, ?, ?) RETURNING created_at`)
	if err := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.StoreID, time.Now().UTC()).Scan(&c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, errCategoryTaken
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (r *sqlCategories) Get(ctx context.Context, id string) (*domain.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
}

func (r *sqlCategories) GetByName(ctx context.Context, storeID, name string) (*domain.Category, error) {
	return r.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE store_id = ? AND name = ? ORDER BY created_at LIMIT 1`, storeID, name)
}

func (r *sqlCategories) getOne(ctx context.Context, query string, args ...any) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select category: %w", err)
	}
	return &c, nil
}

func (r *sqlCategories) List(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := r.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *sqlCategories) ListByStore(ctx context.Context, storeID string) ([]domain.Category, error) {
	categories := []domain.Category{}
	query := r.db.Rebind(`SELECT ` + categoryColumns + ` FROM categories WHERE store_id = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &categories, query, storeID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
