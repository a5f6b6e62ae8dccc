// Package registry manages the lifecycle of registered API clients:
// signup, credential verification, and callback-URL state.
package registry

import (
	"context"
	"errors"
)

// Client is a registered API consumer.
type Client struct {
	ID           int
	Name         string
	PasswordHash []byte
	Callback     string
}

var (
	// ErrNameTaken is returned when a signup reuses an existing client name.
	ErrNameTaken = errors.New("Client name already taken")
	// ErrIncorrectPassword covers both a wrong password and an unknown name,
	// so callers cannot enumerate registered names.
	ErrIncorrectPassword = errors.New("Incorrect password")
	// ErrUnknownClient is returned when a client id matches no registration.
	ErrUnknownClient = errors.New("clientID does not match any registered client")
)

// Store is the persistence port for registered clients. CreateClient must be
// atomic with respect to the name-uniqueness check: of two concurrent
// signups with the same name, exactly one may succeed.
type Store interface {
	CreateClient(ctx context.Context, name string, passwordHash []byte) (int, error)
	ClientByName(ctx context.Context, name string) (*Client, error)
	ClientByID(ctx context.Context, id int) (*Client, error)
	SetCallback(ctx context.Context, id int, callback string) (bool, error)
}

// Publisher receives client lifecycle notifications. Publishing is
// best-effort; implementations must not fail the originating operation.
type Publisher interface {
	ClientRegistered(ctx context.Context, clientID int, name string)
	CallbackUpdated(ctx context.Context, clientID int, callback string)
}

// NoopPublisher discards all notifications.
type NoopPublisher struct{}

func (NoopPublisher) ClientRegistered(context.Context, int, string) {}
func (NoopPublisher) CallbackUpdated(context.Context, int, string)  {}
