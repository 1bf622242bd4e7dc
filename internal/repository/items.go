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

const itemColumns = `id, name, price, quantity, category_id, store_id, image_url, created_at, updated_at`

type sqlItems struct {
	db dbx.DBTX
}

func (r *sqlItems) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item.Quantity < 0 {
		return nil, errNegativeQuantity
	}
	it := *item
	it.ID = uuid.NewString()
	now := time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO items (id, name, price, quantity, category_id, store_id, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at, updated_at`)
	err := r.db.QueryRowxContext(ctx, query,
		it.ID, it.Name, it.Price, it.Quantity, it.CategoryID, it.StoreID, it.ImageURL, now, now,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &it, nil
}

func (r *sqlItems) Get(ctx context.Context, id string) (*domain.Item, error) {
	var it domain.Item
	err := r.db.GetContext(ctx, &it, r.db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	return &it, nil
}

func (r *sqlItems) List(ctx context.Context) ([]domain.Item, error) {
	items := []domain.Item{}
	if err := r.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *sqlItems) ListByStore(ctx context.Context, storeID string) ([]domain.Item, error) {
	items := []domain.Item{}
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE store_id = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &items, query, storeID); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *sqlItems) SetQuantity(ctx context.Context, id string, quantity int) (*domain.Item, error) {
	if quantity < 0 {
		return nil, errNegativeQuantity
	}
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`),
		quantity, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update item quantity: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update item quantity: %w", err)
	} else if n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *sqlItems) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Item, error) {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE items SET quantity = quantity + ?, updated_at = ? WHERE id = ? AND quantity + ? >= 0`),
		delta, time.Now().UTC(), id, delta)
	if err != nil {
		return nil, fmt.Errorf("adjust item quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("adjust item quantity: %w", err)
	}
	if n == 0 {
		// Either the row is gone or the guard refused the delta.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, errInsufficient
	}
	return r.Get(ctx, id)
}
