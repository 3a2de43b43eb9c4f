package ekart

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expirySkew re-authenticates slightly before the token actually lapses so an
// in-flight call never presents a token that expires mid-request.
const expirySkew = 30 * time.Second

// tokenCache holds the bearer token and its expiry. Refresh goes through a
// singleflight group so concurrent expiring requests authenticate once.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group   singleflight.Group
	refresh func(ctx context.Context) (string, time.Time, error)
	now     func() time.Time
}

func newTokenCache(refresh func(ctx context.Context) (string, time.Time, error)) *tokenCache {
	return &tokenCache{
		refresh: refresh,
		now:     time.Now,
	}
}

func (c *tokenCache) get(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Add(expirySkew).Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do("token", func() (any, error) {
		// Re-check under the flight: a concurrent caller may have refreshed
		// while this one waited.
		c.mu.Lock()
		if c.token != "" && c.now().Add(expirySkew).Before(c.expiresAt) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		token, expiresAt, err := c.refresh(ctx)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.token = token
		c.expiresAt = expiresAt
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *tokenCache) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
