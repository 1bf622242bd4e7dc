package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inventory/m/domain"
	"inventory/m/internal/database"
	"inventory/m/internal/logging"
	"inventory/m/internal/migrations"
	"inventory/m/internal/repository"
)

// lockstepUsers holds every GetByEmail caller until all of them have
// looked, so concurrent registrations all pass the duplicate check.
type lockstepUsers struct {
	repository.UserRepository
	looked *sync.WaitGroup
}

func (u lockstepUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := u.UserRepository.GetByEmail(ctx, email)
	u.looked.Done()
	u.looked.Wait()
	return user, err
}

type lockstepManager struct {
	*repository.SQLManager
	looked *sync.WaitGroup
}

func (m lockstepManager) Repos() repository.Repositories {
	r := m.SQLManager.Repos()
	r.Users = lockstepUsers{UserRepository: r.Users, looked: m.looked}
	return r
}

func TestRegister_ConcurrentSameEmailOneWins(t *testing.T) {
	ctx := context.Background()
	db, err := database.Connect(ctx, database.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	sqlRepos := repository.NewSQLManager(db)
	store, err := sqlRepos.Repos().Stores.Create(ctx, &domain.Store{Name: "Main", Address: "1 High St"})
	require.NoError(t, err)

	const callers = 2
	var looked sync.WaitGroup
	looked.Add(callers)
	s := NewService(lockstepManager{SQLManager: sqlRepos, looked: &looked}, NewTokenIssuer("secret", time.Hour), nil, logging.Discard())
	s.cost = bcrypt.MinCost

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register(ctx, "Ann", "ann@example.com", "pw", store.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrConflict):
			conflicts++
			msg, _ := domain.Message(err)
			assert.Equal(t, "User already exists", msg)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	users, err := sqlRepos.Repos().Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
