package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/securepay/gateway/internal/config"
	apperrors "github.com/securepay/gateway/internal/errors"
	"github.com/securepay/gateway/internal/models"
)

// Directory is the slice of the ledger client the store needs: the remote
// user directory.
type Directory interface {
	Users(ctx context.Context) ([]models.User, error)
}

// Store holds the client-side session state: the in-memory roster of known
// users, refreshed on each view load, and the transient per-user
// "balance may be stale" flags set after a submitted payment. The active
// user identifier itself travels in the signed session token; the store
// only decides whether that identifier is still consistent with the roster.
type Store struct {
	directory Directory
	cfg       config.SessionConfig

	mu      sync.RWMutex
	roster  []models.User
	byID    map[int64]models.User
	refresh map[int64]bool
}

func NewStore(directory Directory, cfg config.SessionConfig) *Store {
	return &Store{
		directory: directory,
		cfg:       cfg,
		byID:      make(map[int64]models.User),
		refresh:   make(map[int64]bool),
	}
}

// LoadRoster refreshes the cached user roster from the directory.
func (s *Store) LoadRoster(ctx context.Context) ([]models.User, error) {
	users, err := s.directory.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	s.mu.Lock()
	s.roster = users
	s.byID = make(map[int64]models.User, len(users))
	for _, u := range users {
		s.byID[u.ID] = u
	}
	s.mu.Unlock()

	return s.Roster(), nil
}

// Roster returns a copy of the cached roster.
func (s *Store) Roster() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.roster))
	copy(out, s.roster)
	return out
}

// FindUser looks up a cached user by id.
func (s *Store) FindUser(id int64) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return u, ok
}

// VerifyActive refreshes the roster and confirms the active user still
// exists. A roster that loads successfully but no longer contains the
// active id forces a logout rather than letting the client run in an
// inconsistent state.
func (s *Store) VerifyActive(ctx context.Context, userID int64) (models.User, error) {
	if _, err := s.LoadRoster(ctx); err != nil {
		return models.User{}, err
	}
	user, ok := s.FindUser(userID)
	if !ok {
		log.Warn().Int64("userId", userID).Msg("Active user missing from roster, forcing logout")
		s.ClearRefreshNeeded(userID)
		return models.User{}, apperrors.New(apperrors.ErrCodeSessionGone,
			"Your account no longer exists. Please log in again.", nil)
	}
	return user, nil
}

// MarkRefreshNeeded flags the next dashboard load for this user as needing
// to treat the cached balance as stale.
func (s *Store) MarkRefreshNeeded(userID int64) {
	s.mu.Lock()
	s.refresh[userID] = true
	s.mu.Unlock()
}

// ConsumeRefreshNeeded reads and clears the stale-balance flag.
func (s *Store) ConsumeRefreshNeeded(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	needed := s.refresh[userID]
	delete(s.refresh, userID)
	return needed
}

func (s *Store) ClearRefreshNeeded(userID int64) {
	s.mu.Lock()
	delete(s.refresh, userID)
	s.mu.Unlock()
}
