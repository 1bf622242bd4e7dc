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

const userColumns = `id, name, email, password, store_id, created_at`

type sqlUsers struct {
	db dbx.DBTX
}

func (r *sqlUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	u.ID = uuid.NewString()
	query := r.db.Rebind(`INSERT INTO users (id, name, email, password, store_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING created_at`)
	err := r.db.QueryRowxContext(ctx, query, u.ID, u.Name, u.Email, u.Password, u.StoreID, time.Now().UTC()).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (r *sqlUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqlUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *sqlUsers) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *sqlUsers) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *sqlUsers) ListByStore(ctx context.Context, storeID string) ([]domain.User, error) {
	users := []domain.User{}
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE store_id = ? ORDER BY created_at`)
	if err := r.db.SelectContext(ctx, &users, query, storeID); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *sqlUsers) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "users", id)
}

// deleteByID removes one row and reports domain.ErrNotFound when there
// was nothing to remove.
func deleteByID(ctx context.Context, db dbx.DBTX, table, id string) error {
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
