package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
	"github.com/confhub/confhub/internal/domain/id"
)

type fakeUserRepo struct {
	users []*domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderID == providerID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.Role = role
			return nil
		}
	}
	return domerrors.ErrUserNotFound
}

func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, userID string) error { return nil }

var _ ports.UserRepository = (*fakeUserRepo)(nil)

func TestUpsertFirstUserBecomesAdmin(t *testing.T) {
	svc := NewService(&fakeUserRepo{})
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "github", &ports.Profile{ProviderID: "1", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, first.Role)
	assert.True(t, id.Valid(first.ID))

	second, err := svc.Upsert(ctx, "github", &ports.Profile{ProviderID: "2", Email: "b@example.com", Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, second.Role)
}

func TestUpsertReturnsExistingUser(t *testing.T) {
	svc := NewService(&fakeUserRepo{})
	ctx := context.Background()

	created, err := svc.Upsert(ctx, "google", &ports.Profile{ProviderID: "g-1", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	again, err := svc.Upsert(ctx, "google", &ports.Profile{ProviderID: "g-1", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	repo := &fakeUserRepo{}
	svc2 := NewService(repo)
	_, err = svc2.Upsert(ctx, "google", &ports.Profile{ProviderID: "g-1"})
	require.NoError(t, err)
	require.Len(t, repo.users, 1)
}

func TestUpsertSameIDDifferentProvider(t *testing.T) {
	svc := NewService(&fakeUserRepo{})
	ctx := context.Background()

	a, err := svc.Upsert(ctx, "github", &ports.Profile{ProviderID: "7"})
	require.NoError(t, err)
	b, err := svc.Upsert(ctx, "google", &ports.Profile{ProviderID: "7"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpdateRole(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, "github", &ports.Profile{ProviderID: "1"})
	require.NoError(t, err)

	updated, err := svc.UpdateRole(ctx, created.ID, domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, updated.Role)

	_, err = svc.UpdateRole(ctx, created.ID, domain.Role("Superuser"))
	assert.ErrorIs(t, err, domerrors.ErrInvalidRole)

	_, err = svc.UpdateRole(ctx, id.New(), domain.RoleAdmin)
	assert.ErrorIs(t, err, domerrors.ErrUserNotFound)
}
