package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inventory/m/domain"
	"inventory/m/internal/dbx"
)

const logColumns = `id, action, details, item_id, store_id, quantity, purchaser, from_store_id, to_store_id, created_at`

type sqlLogs struct {
	db dbx.DBTX
}

func (r *sqlLogs) Create(ctx context.Context, log *domain.Log) (*domain.Log, error) {
	l := *log
	l.ID = uuid.NewString()
	query := r.db.Rebind(`INSERT INTO logs (id, action, details, item_id, store_id, quantity, purchaser, from_store_id, to_store_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at`)
	err := r.db.QueryRowxContext(ctx, query,
		l.ID, string(l.Action), l.Details, l.ItemID, l.StoreID, l.Quantity, l.Purchaser, l.FromStoreID, l.ToStoreID, time.Now().UTC(),
	).Scan(&l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert log: %w", err)
	}
	return &l, nil
}

func (r *sqlLogs) List(ctx context.Context) ([]domain.Log, error) {
	return r.list(ctx, `SELECT `+logColumns+` FROM logs ORDER BY created_at DESC`)
}

func (r *sqlLogs) ListByStore(ctx context.Context, storeID string) ([]domain.Log, error) {
	return r.list(ctx, `SELECT `+logColumns+` FROM logs WHERE store_id = ? ORDER BY created_at DESC`, storeID)
}

func (r *sqlLogs) ListByItem(ctx context.Context, itemID string) ([]domain.Log, error) {
	return r.list(ctx, `SELECT `+logColumns+` FROM logs WHERE item_id = ? ORDER BY created_at DESC`, itemID)
}

func (r *sqlLogs) list(ctx context.Context, query string, args ...any) ([]domain.Log, error) {
	logs := []domain.Log{}
	if err := r.db.SelectContext(ctx, &logs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}
