package registry

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// Service implements the client registry operations on top of a Store.
type Service struct {
	store  Store
	events Publisher
}

// NewService constructs a Service. events may be a NoopPublisher.
func NewService(store Store, events Publisher) *Service {
	return &Service{store: store, events: events}
}

// SignUp registers a new client. The password is stored as a bcrypt hash;
// name uniqueness is enforced atomically by the store.
func (s *Service) SignUp(ctx context.Context, name, password string) (*Client, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, err := s.store.CreateClient(ctx, name, hash)
	if err != nil {
		return nil, err
	}

	s.events.ClientRegistered(ctx, id, name)
	return &Client{ID: id, Name: name, PasswordHash: hash}, nil
}

// SignIn verifies the supplied password against the stored hash. An unknown
// name and a wrong password both come back as ErrIncorrectPassword.
func (s *Service) SignIn(ctx context.Context, name, password string) (*Client, error) {
	client, err := s.store.ClientByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrIncorrectPassword
	}
	if err := bcrypt.CompareHashAndPassword(client.PasswordHash, []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return client, nil
}

// UpdateCallback replaces the stored callback URL for a client.
func (s *Service) UpdateCallback(ctx context.Context, clientID int, callback string) error {
	updated, err := s.store.SetCallback(ctx, clientID, callback)
	if err != nil {
		return err
	}
	if !updated {
		return ErrUnknownClient
	}
	s.events.CallbackUpdated(ctx, clientID, callback)
	return nil
}

// Callback reads back the stored callback URL for a client.
func (s *Service) Callback(ctx context.Context, clientID int) (string, error) {
	client, err := s.store.ClientByID(ctx, clientID)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", ErrUnknownClient
	}
	return client.Callback, nil
}
