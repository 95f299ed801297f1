package memory

import (
	"context"
	"sync"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// ProfileStore is an in-memory domain.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*domain.UserProfile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]*domain.UserProfile),
	}
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *profile
	return &cp, nil
}

// PutProfile seeds a profile. Profiles are owned by the host account
// system; this exists for wiring and tests.
func (s *ProfileStore) PutProfile(profile *domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.profiles[profile.ID] = &cp
}
