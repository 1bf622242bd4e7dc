package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventory/m/domain"
)

// Memory is an in-process Manager. Units of work are serialised and a
// failing one restores the state it started from.
type Memory struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	seq        int64
	users      map[string]domain.User
	stores     map[string]domain.Store
	categories map[string]domain.Category
	items      map[string]domain.Item
	logs       map[string]domain.Log
	order      map[string]int64
}

func NewMemory() *Memory {
	return &Memory{
		users:      map[string]domain.User{},
		stores:     map[string]domain.Store{},
		categories: map[string]domain.Category{},
		items:      map[string]domain.Item{},
		logs:       map[string]domain.Log{},
		order:      map[string]int64{},
	}
}

func (m *Memory) Repos() Repositories {
	return Repositories{
		Users:      memUsers{m},
		Stores:     memStores{m},
		Categories: memCategories{m},
		Items:      memItems{m},
		Logs:       memLogs{m},
	}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
		if err != nil {
			m.restore(snap)
		}
	}()
	return fn(ctx, m.Repos())
}

type memState struct {
	users      map[string]domain.User
	stores     map[string]domain.Store
	categories map[string]domain.Category
	items      map[string]domain.Item
	logs       map[string]domain.Log
	order      map[string]int64
}

func (m *Memory) snapshot() memState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memState{
		users:      cloneMap(m.users),
		stores:     cloneMap(m.stores),
		categories: cloneMap(m.categories),
		items:      cloneMap(m.items),
		logs:       cloneMap(m.logs),
		order:      cloneMap(m.order),
	}
}

func (m *Memory) restore(s memState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.stores, m.categories, m.items, m.logs, m.order = s.users, s.stores, s.categories, s.items, s.logs, s.order
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// newID must be called with mu held.
func (m *Memory) newID() (string, string) {
	id := uuid.NewString()
	m.seq++
	m.order[id] = m.seq
	return id, time.Now().UTC().Format(time.RFC3339Nano)
}

// sorted returns the values matching keep in insertion order, or newest
// first when desc is set. Must be called with mu held.
func sorted[V any](m *Memory, src map[string]V, id func(V) string, keep func(V) bool, desc bool) []V {
	out := []V{}
	for _, v := range src {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := m.order[id(out[i])], m.order[id(out[j])]
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return nil, errEmailTaken
		}
	}
	u := *user
	u.ID, u.CreatedAt = r.m.newID()
	r.m.users[u.ID] = u
	return &u, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.users, userID, nil, false), nil
}

func (r memUsers) ListByStore(_ context.Context, storeID string) ([]domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.users, userID, func(u domain.User) bool { return u.StoreID == storeID }, false), nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.users, id)
	return nil
}

type memStores struct{ m *Memory }

func (r memStores) Create(_ context.Context, store *domain.Store) (*domain.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s := domain.Store{Name: store.Name, Address: store.Address}
	s.ID, s.CreatedAt = r.m.newID()
	r.m.stores[s.ID] = s
	return &s, nil
}

func (r memStores) Get(_ context.Context, id string) (*domain.Store, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r memStores) Update(_ context.Context, store *domain.Store) (*domain.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.stores[store.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.Name, s.Address = store.Name, store.Address
	r.m.stores[s.ID] = s
	return &s, nil
}

// Delete cascades to everything the store owns, like the SQL schema.
func (r memStores) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.stores[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.stores, id)
	for k, v := range r.m.users {
		if v.StoreID == id {
			delete(r.m.users, k)
		}
	}
	for k, v := range r.m.categories {
		if v.StoreID == id {
			delete(r.m.categories, k)
		}
	}
	for k, v := range r.m.items {
		if v.StoreID == id {
			delete(r.m.items, k)
		}
	}
	for k, v := range r.m.logs {
		if _, ok := r.m.items[v.ItemID]; v.StoreID == id || !ok {
			delete(r.m.logs, k)
		}
	}
	return nil
}

func (r memStores) List(_ context.Context) ([]domain.Store, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.stores, func(s domain.Store) string { return s.ID }, nil, false), nil
}

type memCategories struct{ m *Memory }

func (r memCategories) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.categories {
		if existing.StoreID == category.StoreID && existing.Name == category.Name {
			return nil, errCategoryTaken
		}
	}
	c := domain.Category{Name: category.Name, StoreID: category.StoreID}
	c.ID, c.CreatedAt = r.m.newID()
	r.m.categories[c.ID] = c
	return &c, nil
}

func (r memCategories) Get(_ context.Context, id string) (*domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memCategories) GetByName(_ context.Context, storeID, name string) (*domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	found := sorted(r.m, r.m.categories, categoryID, func(c domain.Category) bool {
		return c.StoreID == storeID && c.Name == name
	}, false)
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	return &found[0], nil
}

func (r memCategories) List(_ context.Context) ([]domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.categories, categoryID, nil, false), nil
}

func (r memCategories) ListByStore(_ context.Context, storeID string) ([]domain.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.categories, categoryID, func(c domain.Category) bool { return c.StoreID == storeID }, false), nil
}

type memItems struct{ m *Memory }

func (r memItems) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	if item.Quantity < 0 {
		return nil, errNegativeQuantity
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it := *item
	it.ID, it.CreatedAt = r.m.newID()
	it.UpdatedAt = it.CreatedAt
	r.m.items[it.ID] = it
	return &it, nil
}

func (r memItems) Get(_ context.Context, id string) (*domain.Item, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	it, ok := r.m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (r memItems) List(_ context.Context) ([]domain.Item, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.items, itemID, nil, false), nil
}

func (r memItems) ListByStore(_ context.Context, storeID string) ([]domain.Item, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.items, itemID, func(it domain.Item) bool { return it.StoreID == storeID }, false), nil
}

func (r memItems) SetQuantity(_ context.Context, id string, quantity int) (*domain.Item, error) {
	if quantity < 0 {
		return nil, errNegativeQuantity
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it, ok := r.m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	it.Quantity = quantity
	it.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	r.m.items[id] = it
	return &it, nil
}

func (r memItems) AdjustQuantity(_ context.Context, id string, delta int) (*domain.Item, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	it, ok := r.m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if it.Quantity+delta < 0 {
		return nil, errInsufficient
	}
	it.Quantity += delta
	it.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	r.m.items[id] = it
	return &it, nil
}

type memLogs struct{ m *Memory }

func (r memLogs) Create(_ context.Context, log *domain.Log) (*domain.Log, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l := *log
	l.ID, l.CreatedAt = r.m.newID()
	r.m.logs[l.ID] = l
	return &l, nil
}

func (r memLogs) List(_ context.Context) ([]domain.Log, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.logs, logID, nil, true), nil
}

func (r memLogs) ListByStore(_ context.Context, storeID string) ([]domain.Log, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.logs, logID, func(l domain.Log) bool { return l.StoreID == storeID }, true), nil
}

func (r memLogs) ListByItem(_ context.Context, itemID string) ([]domain.Log, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sorted(r.m, r.m.logs, logID, func(l domain.Log) bool { return l.ItemID == itemID }, true), nil
}

func userID(u domain.User) string         { return u.ID }
func categoryID(c domain.Category) string { return c.ID }
func itemID(it domain.Item) string        { return it.ID }
func logID(l domain.Log) string           { return l.ID }
