// Package sessioncache hands out logged-in UIS sessions by student id,
// logging in on demand with credentials from the keychain and reusing
// the session until it ages out.
package sessioncache

import (
	"context"
	"fmt"
	"time"

	"fduassist-backend/lib/keychain"
	"fduassist-backend/lib/scrapers/uis"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// credentials for the SSO front door live under this keychain namespace
const Namespace = "uis"

type Cache struct {
	cache    *expirable.LRU[string, *uis.Session]
	keychain keychain.Store
	opts     uis.Options
}

func New(kc keychain.Store, opts uis.Options) Cache {
	return Cache{
		cache:    expirable.NewLRU[string, *uis.Session](2048, nil, time.Minute*15),
		keychain: kc,
		opts:     opts,
	}
}

// Get returns a logged-in session for the student, reusing a cached one
// when available.
func (c Cache) Get(ctx context.Context, student string) (*uis.Session, error) {
	cached, hit := c.cache.Get(student)
	if hit {
		return cached, nil
	}

	key, ok, err := c.keychain.Get(ctx, Namespace, student)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no credentials stored for %q", student)
	}

	session, err := uis.NewSession(c.opts)
	if err != nil {
		return nil, err
	}
	err = session.Login(ctx, key.Username, key.Password)
	if err != nil {
		return nil, err
	}

	c.cache.Add(student, session)
	return session, nil
}

// Evict drops a student's cached session, the next Get logs in again.
func (c Cache) Evict(student string) {
	c.cache.Remove(student)
}
