// Package admin manages stores, users and categories.
package admin

import (
	"context"
	"errors"
	"strings"

	"inventory/m/domain"
	"inventory/m/internal/logging"
	"inventory/m/internal/repository"
)

type Service struct {
	repos  repository.Manager
	logger logging.Logger
}

func NewService(repos repository.Manager, logger logging.Logger) *Service {
	return &Service{repos: repos, logger: logger}
}

func (s *Service) CreateStore(ctx context.Context, name, address string) (*domain.Store, error) {
	name, address = strings.TrimSpace(name), strings.TrimSpace(address)
	if name == "" || address == "" {
		return nil, domain.Validation("All fields required")
	}
	store, err := s.repos.Repos().Stores.Create(ctx, &domain.Store{Name: name, Address: address})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "store created", "store_id", store.ID)
	return store, nil
}

// GetStore returns the store with its users, items, categories and logs.
func (s *Service) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	r := s.repos.Repos()
	store, err := r.Stores.Get(ctx, id)
	if err != nil {
		return nil, storeNotFound(err)
	}

	if store.Users, err = r.Users.ListByStore(ctx, id); err != nil {
		return nil, err
	}
	if store.Items, err = r.Items.ListByStore(ctx, id); err != nil {
		return nil, err
	}
	if store.Categories, err = r.Categories.ListByStore(ctx, id); err != nil {
		return nil, err
	}
	if store.Logs, err = r.Logs.ListByStore(ctx, id); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Service) UpdateStore(ctx context.Context, id, name, address string) (*domain.Store, error) {
	name, address = strings.TrimSpace(name), strings.TrimSpace(address)
	if name == "" || address == "" {
		return nil, domain.Validation("All fields required")
	}
	store, err := s.repos.Repos().Stores.Update(ctx, &domain.Store{ID: id, Name: name, Address: address})
	if err != nil {
		return nil, storeNotFound(err)
	}
	s.logger.Info(ctx, "store updated", "store_id", id)
	return store, nil
}

// DeleteStore removes the store together with everything it owns.
func (s *Service) DeleteStore(ctx context.Context, id string) error {
	if err := s.repos.Repos().Stores.Delete(ctx, id); err != nil {
		return storeNotFound(err)
	}
	s.logger.Info(ctx, "store deleted", "store_id", id)
	return nil
}

// ListStores returns every store with its related rows. Each relation
// is read once and grouped by store.
func (s *Service) ListStores(ctx context.Context) ([]domain.Store, error) {
	r := s.repos.Repos()
	stores, err := r.Stores.List(ctx)
	if err != nil {
		return nil, err
	}

	users, err := r.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	items, err := r.Items.List(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := r.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := r.Logs.List(ctx)
	if err != nil {
		return nil, err
	}

	usersByStore := make(map[string][]domain.User)
	for _, u := range users {
		usersByStore[u.StoreID] = append(usersByStore[u.StoreID], u)
	}
	itemsByStore := make(map[string][]domain.Item)
	for _, it := range items {
		itemsByStore[it.StoreID] = append(itemsByStore[it.StoreID], it)
	}
	categoriesByStore := make(map[string][]domain.Category)
	for _, c := range categories {
		categoriesByStore[c.StoreID] = append(categoriesByStore[c.StoreID], c)
	}
	logsByStore := make(map[string][]domain.Log)
	for _, l := range logs {
		logsByStore[l.StoreID] = append(logsByStore[l.StoreID], l)
	}

	for i := range stores {
		id := stores[i].ID
		stores[i].Users = usersByStore[id]
		stores[i].Items = itemsByStore[id]
		stores[i].Categories = categoriesByStore[id]
		stores[i].Logs = logsByStore[id]
	}
	return stores, nil
}

// ListUsers returns every user with the store it belongs to.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	r := s.repos.Repos()
	users, err := r.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	stores, err := r.Stores.List(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Store, len(stores))
	for i := range stores {
		byID[stores[i].ID] = &stores[i]
	}
	for i := range users {
		users[i].Store = byID[users[i].StoreID]
	}
	return users, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repos.Repos().Users.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotFound("User not found")
		}
		return err
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// CreateCategory adds a category to a store. Names are unique per
// store.
func (s *Service) CreateCategory(ctx context.Context, storeID, name string) (*domain.Category, error) {
	storeID, name = strings.TrimSpace(storeID), strings.TrimSpace(name)
	if storeID == "" || name == "" {
		return nil, domain.Validation("All fields required")
	}

	var category *domain.Category
	err := s.repos.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		if _, err := r.Stores.Get(ctx, storeID); err != nil {
			return storeNotFound(err)
		}
		_, err := r.Categories.GetByName(ctx, storeID, name)
		switch {
		case err == nil:
			return domain.Conflict("Category already exists")
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		category, err = r.Categories.Create(ctx, &domain.Category{Name: name, StoreID: storeID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// EnsureCategory returns the named category of a store, creating it
// when missing.
func (s *Service) EnsureCategory(ctx context.Context, storeID, name string) (*domain.Category, error) {
	c, err := s.CreateCategory(ctx, storeID, name)
	if errors.Is(err, domain.ErrConflict) {
		return s.repos.Repos().Categories.GetByName(ctx, strings.TrimSpace(storeID), strings.TrimSpace(name))
	}
	return c, err
}

func (s *Service) ListCategories(ctx context.Context, storeID string) ([]domain.Category, error) {
	r := s.repos.Repos()
	if _, err := r.Stores.Get(ctx, storeID); err != nil {
		return nil, storeNotFound(err)
	}
	return r.Categories.ListByStore(ctx, storeID)
}

func storeNotFound(err error) error {
	var de *domain.Error
	if errors.Is(err, domain.ErrNotFound) && !errors.As(err, &de) {
		return domain.NotFound("Store not found")
	}
	return err
}
