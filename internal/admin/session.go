package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Persisted keys, namespaced per admin session id.
const (
	keyAuth     = "admin-auth"
	keyAuthTime = "admin-auth-time"
)

var (
	ErrWrongPassword = errors.New("wrong admin password")
	ErrNoPassword    = errors.New("admin password not configured")
)

// Session is the admin's authentication state.
type Session struct {
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsValid reports whether the session authorizes access at now.
func (s Session) IsValid(now time.Time) bool {
	return s.Authenticated && now.Before(s.ExpiresAt)
}

// Store persists the gate flags. Implementations: Redis (production), Memory (tests).
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Gate is the admin password gate. It holds only a bcrypt hash of the
// configured password; input is trimmed and must match it exactly.
type Gate struct {
	store Store
	hash  []byte
	ttl   time.Duration
	now   func() time.Time
}

// NewGate hashes password once. ttl is the session lifetime (24h by default).
func NewGate(store Store, password string, ttl time.Duration) (*Gate, error) {
	if password == "" {
		return nil, ErrNoPassword
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Gate{store: store, hash: hash, ttl: ttl, now: time.Now}, nil
}

func keys(sid string) (string, string) {
	return keyAuth + ":" + sid, keyAuthTime + ":" + sid
}

// Login authenticates sid when input, trimmed, equals the admin password.
func (g *Gate) Login(ctx context.Context, sid, input string) (Session, error) {
	if bcrypt.CompareHashAndPassword(g.hash, []byte(strings.TrimSpace(input))) != nil {
		return Session{}, ErrWrongPassword
	}

	now := g.now()
	kAuth, kTime := keys(sid)
	if err := g.store.Set(ctx, kAuth, "true", g.ttl); err != nil {
		return Session{}, fmt.Errorf("persist admin session: %w", err)
	}
	if err := g.store.Set(ctx, kTime, strconv.FormatInt(now.UnixMilli(), 10), g.ttl); err != nil {
		return Session{}, fmt.Errorf("persist admin session: %w", err)
	}
	return Session{Authenticated: true, ExpiresAt: now.Add(g.ttl)}, nil
}

// Load reads the session for sid. A session older than the ttl, or with
// unreadable flags, is cleared and reported unauthenticated.
func (g *Gate) Load(ctx context.Context, sid string) (Session, error) {
	if sid == "" {
		return Session{}, nil
	}
	kAuth, kTime := keys(sid)

	flag, ok, err := g.store.Get(ctx, kAuth)
	if err != nil {
		return Session{}, err
	}
	if !ok || flag != "true" {
		return Session{}, nil
	}

	raw, ok, err := g.store.Get(ctx, kTime)
	if err != nil {
		return Session{}, err
	}
	ms, perr := strconv.ParseInt(raw, 10, 64)
	if !ok || perr != nil {
		return Session{}, g.store.Del(ctx, kAuth, kTime)
	}

	s := Session{Authenticated: true, ExpiresAt: time.UnixMilli(ms).Add(g.ttl)}
	if !s.IsValid(g.now()) {
		return Session{}, g.store.Del(ctx, kAuth, kTime)
	}
	return s, nil
}

// Logout clears both flags for sid.
func (g *Gate) Logout(ctx context.Context, sid string) error {
	kAuth, kTime := keys(sid)
	return g.store.Del(ctx, kAuth, kTime)
}
