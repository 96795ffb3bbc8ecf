package auth

import (
	"context"
	"sync"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// Client is the identity provider as seen by one session. It holds the
// current identity and reports every change to its listeners.
type Client struct {
	svc *Service

	mu        sync.Mutex
	current   *entity.Identity
	listeners map[int]func(*entity.Identity)
	nextID    int
}

// NewClient starts signed out.
func NewClient(svc *Service) *Client {
	return &Client{svc: svc, listeners: map[int]func(*entity.Identity){}}
}

// RestoreClient starts from a previously issued token. An invalid or
// expired token yields a signed-out client.
func RestoreClient(ctx context.Context, svc *Service, token string) *Client {
	c := NewClient(svc)
	if token == "" {
		return c
	}
	if id, err := svc.Resolve(ctx, token); err == nil {
		c.current = id
	}
	return c
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*entity.Identity, error) {
	id, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(id)
	return id, nil
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error) {
	id, err := c.svc.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(id)
	return id, nil
}

// SignOut drops the local identity. Tokens are stateless, so nothing is
// revoked server side.
func (c *Client) SignOut(ctx context.Context) error {
	c.set(nil)
	return nil
}

func (c *Client) Current() *entity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) OnAuthStateChange(fn func(*entity.Identity)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) set(id *entity.Identity) {
	c.mu.Lock()
	c.current = id
	fns := make([]func(*entity.Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
