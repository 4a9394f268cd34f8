// Package rolestore holds the single source of truth for a subject's
// current membership role and fans out change events to readers.
package rolestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"membership-app/internal/domain/roles"
	"membership-app/internal/infra/logging"

	"github.com/google/uuid"
)

const (
	PrimaryKeyPrefix = "userRole:"
	// LegacyKeyPrefix mirrors the primary key for older readers.
	LegacyKeyPrefix = "dev.role:"

	EventRoleChanged = "roleChanged"

	subscriberBuffer = 16
)

var (
	ErrNoRole      = errors.New("no role stored")
	ErrInvalidRole = errors.New("invalid role")
)

type RoleChanged struct {
	Event     string         `json:"event"`
	Subject   string         `json:"subject"`
	Role      roles.UserRole `json:"role"`
	Previous  roles.UserRole `json:"previous,omitempty"`
	ChangedAt time.Time      `json:"changed_at"`
	Origin    string         `json:"origin"`
}

// Backend stores both keys and broadcasts events to other instances.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	// SetPair writes both keys atomically and returns the previous primary
	// value. A ttl of zero keeps the keys until the next write.
	SetPair(ctx context.Context, primaryKey, legacyKey, value string, ttl time.Duration) (string, error)
	Publish(ctx context.Context, ev RoleChanged) error
}

// Listener is implemented by backends that can deliver events published by
// other instances.
type Listener interface {
	Listen(ctx context.Context, fn func(RoleChanged)) error
}

type Store struct {
	backend Backend
	origin  string

	mu     sync.Mutex
	subs   map[int]chan RoleChanged
	nextID int
}

func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		origin:  uuid.NewString(),
		subs:    make(map[int]chan RoleChanged),
	}
}

// Origin identifies events written by this instance.
func (s *Store) Origin() string { return s.origin }

func PrimaryKey(subject string) string { return PrimaryKeyPrefix + subject }
func LegacyKey(subject string) string  { return LegacyKeyPrefix + subject }

// Get returns the stored role. Unrecognised stored values resolve to
// roles.FallbackRole.
func (s *Store) Get(ctx context.Context, subject string) (roles.UserRole, error) {
	return s.read(ctx, PrimaryKey(subject))
}

// GetLegacy reads the mirror key.
func (s *Store) GetLegacy(ctx context.Context, subject string) (roles.UserRole, error) {
	return s.read(ctx, LegacyKey(subject))
}

func (s *Store) read(ctx context.Context, key string) (roles.UserRole, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", err
	}
	r, ok := roles.Parse(raw)
	if !ok {
		logging.Log.Warn().Str("key", key).Str("value", raw).Msg("unknown role in store, using fallback")
	}
	return r, nil
}

// Set stores a role that stays until the next write.
func (s *Store) Set(ctx context.Context, subject string, role roles.UserRole) error {
	return s.SetUntil(ctx, subject, role, time.Time{})
}

// SetUntil is the only write path for roles. Once until has passed the
// entry reads as ErrNoRole so callers derive it again. A zero until never
// expires.
func (s *Store) SetUntil(ctx context.Context, subject string, role roles.UserRole, until time.Time) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var ttl time.Duration
	if !until.IsZero() {
		ttl = time.Until(until)
		if ttl <= 0 {
			// already stale; keep it just long enough to be written
			ttl = time.Millisecond
		}
	}

	prevRaw, err := s.backend.SetPair(ctx, PrimaryKey(subject), LegacyKey(subject), string(role), ttl)
	if err != nil {
		return fmt.Errorf("store role for %s: %w", subject, err)
	}

	ev := RoleChanged{
		Event:     EventRoleChanged,
		Subject:   subject,
		Role:      role,
		ChangedAt: time.Now().UTC(),
		Origin:    s.origin,
	}
	if prevRaw != "" {
		ev.Previous, _ = roles.Parse(prevRaw)
	}

	s.notify(ev)

	if err := s.backend.Publish(ctx, ev); err != nil {
		// local readers already saw it; remote instances catch up on next read
		logging.Log.Error().Err(err).Str("subject", subject).Msg("role change broadcast failed")
	}
	return nil
}

// Subscribe registers a reader. The returned cancel func must be called to
// release it.
func (s *Store) Subscribe() (<-chan RoleChanged, func()) {
	ch := make(chan RoleChanged, subscriberBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notify(ev RoleChanged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			logging.Log.Warn().Str("subject", ev.Subject).Msg("role subscriber is full, dropping event")
		}
	}
}

// Run relays events from other instances to local subscribers until ctx is
// done. It returns immediately when the backend cannot listen.
func (s *Store) Run(ctx context.Context) error {
	l, ok := s.backend.(Listener)
	if !ok {
		return nil
	}
	return l.Listen(ctx, func(ev RoleChanged) {
		if ev.Origin == s.origin {
			return
		}
		s.notify(ev)
	})
}
