package auth

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-bookmark-api/internal/config"
	"github.com/redmonkez12/go-bookmark-api/internal/logging"
	"github.com/redmonkez12/go-bookmark-api/internal/user"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// cheap argon2 parameters for tests
var testHashConfig = config.HashConfig{
	Time:      1,
	MemoryKiB: 64,
	Threads:   1,
	KeyLen:    32,
	SaltLen:   16,
}

func discardLogger() *logging.Logger {
	return logging.New(io.Discard, false)
}

// fakeClock is a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryStore is an in-memory CredentialStore that counts calls
type memoryStore struct {
	mu      sync.Mutex
	byEmail map[string]*user.User

	creates int
	reads   int

	createErr error
	getErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byEmail: map[string]*user.User{}}
}

func (s *memoryStore) Create(_ context.Context, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++

	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.byEmail[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.byEmail[email] = u

	cp := *u
	return &cp, nil
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}

	cp := *u
	return &cp, nil
}

var errBoom = errors.New("boom")

func (s *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}
