package memory

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

// Store is the in-memory transaction store for the single-session
// variant. Records get a stable ID from an incrementing counter, so a
// delete observed at display time stays valid regardless of what else
// changed in between.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

func NewStore() *Store {
	return &Store{nextID: 1}
}

// Add stores the transaction and returns its assigned ID.
func (s *Store) Add(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	s.items = append(s.items, tx)
	return tx.ID, nil
}

// List returns the owner's transactions in insertion order.
func (s *Store) List(_ context.Context, owner int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if tx.Owner == owner {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Delete removes the owner's transaction with the given ID.
func (s *Store) Delete(_ context.Context, owner int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id && tx.Owner == owner {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return core.ErrTransactionNotFound
}

// Credentials is an in-memory credential store. The memory backend runs
// without accounts, but the HTTP tests exercise the full auth flow
// against it.
type Credentials struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]core.User
}

func NewCredentials() *Credentials {
	return &Credentials{nextID: 1, users: make(map[string]core.User)}
}

func (c *Credentials) Register(_ context.Context, username, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.users[username]; exists {
		return 0, core.ErrDuplicateUsername
	}
	u := core.User{ID: c.nextID, Username: username, PasswordHash: string(hash)}
	c.nextID++
	c.users[username] = u
	return u.ID, nil
}

func (c *Credentials) Authenticate(_ context.Context, username, password string) (int64, error) {
	c.mu.Lock()
	u, exists := c.users[username]
	c.mu.Unlock()
	if !exists {
		return 0, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return 0, core.ErrInvalidCredentials
	}
	return u.ID, nil
}
