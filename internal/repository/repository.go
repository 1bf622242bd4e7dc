// Package repository is the persistence port of the service. Services
// depend on the interfaces here; SQLManager backs them with sqlx and
// Memory with plain maps for tests.
package repository

import (
	"context"

	"inventory/m/domain"
)

// UserRepository keeps emails unique; Create reports a taken email as
// a domain.ErrConflict.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) (*domain.Store, error)
	Get(ctx context.Context, id string) (*domain.Store, error)
	Update(ctx context.Context, store *domain.Store) (*domain.Store, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Store, error)
}

// CategoryRepository keeps names unique per store; Create reports a
// taken name as a domain.ErrConflict.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, storeID, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Category, error)
}

// ItemRepository owns every write to Item.quantity. SetQuantity and
// AdjustQuantity refuse to leave a negative quantity behind, and
// AdjustQuantity checks and applies the delta in one statement so that
// concurrent decrements cannot oversell.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Item, error)
	SetQuantity(ctx context.Context, id string, quantity int) (*domain.Item, error)
	AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Item, error)
}

type LogRepository interface {
	Create(ctx context.Context, log *domain.Log) (*domain.Log, error)
	List(ctx context.Context) ([]domain.Log, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.Log, error)
	ListByItem(ctx context.Context, itemID string) ([]domain.Log, error)
}

// Repositories groups the repositories bound to one handle, either the
// pool or a transaction.
type Repositories struct {
	Users      UserRepository
	Stores     StoreRepository
	Categories CategoryRepository
	Items      ItemRepository
	Logs       LogRepository
}

// Manager vends repositories and runs units of work. Everything done
// through the Repositories passed to fn commits or rolls back together.
type Manager interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
}

var (
	errNegativeQuantity = domain.Validation("Quantity cannot be negative")
	errInsufficient     = domain.InsufficientStock("Insufficient quantity")
	errEmailTaken       = domain.Conflict("User already exists")
	errCategoryTaken    = domain.Conflict("Category already exists")
)
