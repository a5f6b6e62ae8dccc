// Package persistence provides in-memory stores used for local development
// and tests. The Postgres-backed implementations live in the postgres
// subpackage.
package persistence

import (
	"context"
	"sync"

	"example.com/aggregator/internal/domain"
	"example.com/aggregator/internal/registry"
)

// MemoryClientStore keeps registered clients in a mutex-guarded map. The
// lock makes the name-uniqueness check and insert a single atomic step.
type MemoryClientStore struct {
	mu     sync.RWMutex
	byID   map[int]registry.Client
	byName map[string]int
	nextID int
}

// NewMemoryClientStore constructs an empty store.
func NewMemoryClientStore() *MemoryClientStore {
	return &MemoryClientStore{
		byID:   make(map[int]registry.Client),
		byName: make(map[string]int),
		nextID: 1,
	}
}

// CreateClient implements registry.Store.
func (s *MemoryClientStore) CreateClient(ctx context.Context, name string, passwordHash []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[name]; taken {
		return 0, registry.ErrNameTaken
	}

	id := s.nextID
	s.nextID++
	s.byID[id] = registry.Client{ID: id, Name: name, PasswordHash: passwordHash}
	s.byName[name] = id
	return id, nil
}

// ClientByName implements registry.Store.
func (s *MemoryClientStore) ClientByName(ctx context.Context, name string) (*registry.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	client := s.byID[id]
	return &client, nil
}

// ClientByID implements registry.Store.
func (s *MemoryClientStore) ClientByID(ctx context.Context, id int) (*registry.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &client, nil
}

// SetCallback implements registry.Store.
func (s *MemoryClientStore) SetCallback(ctx context.Context, id int, callback string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	client.Callback = callback
	s.byID[id] = client
	return true, nil
}

// MemoryLinkStore maps users to their provider links.
type MemoryLinkStore struct {
	mu    sync.RWMutex
	links map[int][]domain.ProviderLink
}

// NewMemoryLinkStore constructs an empty link store.
func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{links: make(map[int][]domain.ProviderLink)}
}

// AddLink registers a provider link for a user, one per platform.
func (s *MemoryLinkStore) AddLink(userID int, link domain.ProviderLink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.links[userID]
	for i, l := range existing {
		if l.Platform == link.Platform {
			existing[i] = link
			return
		}
	}
	s.links[userID] = append(existing, link)
}

// LinksForUser implements domain.LinkStore.
func (s *MemoryLinkStore) LinksForUser(ctx context.Context, userID int) ([]domain.ProviderLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := s.links[userID]
	out := make([]domain.ProviderLink, len(links))
	copy(out, links)
	return out, nil
}
