// Package users holds account lifecycle logic: create-or-fetch by provider
// identity, role management, and the first-user admin promotion.
package users

import (
	"context"
	"time"

	"github.com/confhub/confhub/internal/application/ports"
	"github.com/confhub/confhub/internal/domain"
	domerrors "github.com/confhub/confhub/internal/domain/errors"
	"github.com/confhub/confhub/internal/domain/id"
)

type Service struct {
	repo ports.UserRepository
}

func NewService(repo ports.UserRepository) *Service {
	return &Service{repo: repo}
}

// Upsert returns the user for (provider, providerID), creating it on first
// login. The first user in the system becomes Admin. The count-then-insert is
// a known race: concurrent first logins can both observe an empty table.
func (s *Service) Upsert(ctx context.Context, provider string, profile *ports.Profile) (*domain.User, error) {
	user, err := s.repo.GetByProvider(ctx, provider, profile.ProviderID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
			return nil, err
		}
		user.LastLoginAt = time.Now()
		return user, nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	role := domain.RoleUser
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := time.Now()
	user = &domain.User{
		ID:          id.New(),
		Email:       profile.Email,
		Name:        profile.Name,
		AvatarURL:   profile.AvatarURL,
		Role:        role,
		Provider:    provider,
		ProviderID:  profile.ProviderID,
		CreatedAt:   now,
		LastLoginAt: now,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns the user by id, or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrUserNotFound
	}
	return user, nil
}

// UpdateRole changes the user's role. Admin-only enforcement happens at the
// handler layer.
func (s *Service) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, domerrors.ErrInvalidRole
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}
