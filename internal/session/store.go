// Package session owns the single client-side session: the bearer token and
// the Identity it authorizes, mirrored to durable local storage so the
// session survives a restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"attenddesk/internal/api"
	"attenddesk/internal/store"
	"attenddesk/internal/token"
)

// Storage keys, shared with the original client.
const (
	keyToken = "token"
	keyUser  = "user"
)

// ErrNoSession is returned by operations that need an authenticated session.
var ErrNoSession = errors.New("session: not authenticated")

// Store is the single-writer session container. All mutations replace the
// whole state atomically under the lock; readers see either the previous or
// the next session, never a mix.
type Store struct {
	kv  store.KV
	api *api.Client

	mu       sync.RWMutex
	token    string
	identity *api.Identity
}

// New creates an empty store. Call Restore before serving.
func New(kv store.KV, client *api.Client) *Store {
	return &Store{kv: kv, api: client}
}

// Restore loads the persisted session, if any. Both keys must be present;
// a half-present or unreadable cache is deleted so storage converges to the
// logged-out state. The cached token is trusted without a network
// round-trip — revocation is only discovered by the next failing API call.
func (s *Store) Restore(ctx context.Context) error {
	tok, err := s.kv.Get(ctx, keyToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.kv.Delete(ctx, keyUser)
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}
	raw, err := s.kv.Get(ctx, keyUser)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.kv.Delete(ctx, keyToken)
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}
	var identity api.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		// Unreadable cache: start logged out instead of failing startup.
		_ = s.kv.Delete(ctx, keyToken, keyUser)
		return nil
	}

	s.mu.Lock()
	s.token = tok
	s.identity = &identity
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for a session. On success the token and
// identity are persisted and become the current session; on failure the
// stored state is untouched and the backend's message is returned.
func (s *Store) Login(ctx context.Context, email, password string) (api.Identity, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return api.Identity{}, err
	}
	if resp.Token == "" {
		return api.Identity{}, errors.New("login response carried no token")
	}

	raw, err := json.Marshal(resp.Identity)
	if err != nil {
		return api.Identity{}, err
	}
	if err := s.kv.Set(ctx, keyToken, resp.Token); err != nil {
		return api.Identity{}, fmt.Errorf("persist session: %w", err)
	}
	if err := s.kv.Set(ctx, keyUser, string(raw)); err != nil {
		return api.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	identity := resp.Identity
	s.mu.Lock()
	s.token = resp.Token
	s.identity = &identity
	s.mu.Unlock()
	return identity, nil
}

// Logout clears durable storage and memory. The token is not revoked
// server-side; that is the backend's concern.
func (s *Store) Logout(ctx context.Context) error {
	err := s.kv.Delete(ctx, keyToken, keyUser)

	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()
	return err
}

// UpdateIdentity merges non-empty patch fields into the cached identity and
// re-persists it, so display data matches the backend without a re-fetch.
func (s *Store) UpdateIdentity(ctx context.Context, patch api.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ErrNoSession
	}
	merged := *s.identity
	if patch.Name != "" {
		merged.Name = patch.Name
	}
	if patch.Email != "" {
		merged.Email = patch.Email
	}
	if patch.Phone != "" {
		merged.Phone = patch.Phone
	}
	if patch.Department != "" {
		merged.Department = patch.Department
	}
	if patch.Address != "" {
		merged.Address = patch.Address
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keyUser, string(raw)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.identity = &merged
	return nil
}

// Current returns a copy of the logged-in identity.
func (s *Store) Current() (api.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return api.Identity{}, false
	}
	return *s.identity, true
}

// Token returns the current bearer token, or "". Wired into the API client
// as its TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	_, ok := s.Current()
	return ok
}

// Claims inspects the current token for display purposes.
func (s *Store) Claims() (token.Claims, bool) {
	tok := s.Token()
	if tok == "" {
		return token.Claims{}, false
	}
	claims, err := token.Inspect(tok)
	if err != nil {
		return token.Claims{}, false
	}
	return claims, true
}
