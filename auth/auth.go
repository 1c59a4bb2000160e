package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches a client-credentials token and attaches it to outgoing
// requests. It is safe for concurrent use.
type ClientCred struct {
	conf  clientcredentials.Config
	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{
		conf: conf.toOauth2Config(),
	}
}

// GetToken returns the cached access token, fetching a new one when the
// cached token is missing or expired.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	tok, err := c.valid(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// ForceRefresh discards the cached token and requests a new one. Callers use
// it after the upstream answered 401 with a token we still considered valid.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// SetAuthHeader sets the Authorization header of r.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.valid(r.Context())
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) valid(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token, nil
	}
	if err := c.fetch(ctx); err != nil {
		return nil, err
	}
	return c.token, nil
}

func (c *ClientCred) fetch(ctx context.Context) error {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}
