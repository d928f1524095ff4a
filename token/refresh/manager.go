package refresh

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

const defaultTokenLength = 32 // bytes = 256 bits

// DefaultExpiry is the absolute refresh token lifetime.
const DefaultExpiry = 7 * 24 * time.Hour

// Manager issues, resolves and revokes opaque refresh tokens. A token is a
// random value with no internal structure; expiry is enforced by the
// backing repo's sweep and double-checked against IssuedAt on lookup.
//
// Tokens are not rotated when used: the same value keeps minting session
// tokens until it expires or is revoked. A stolen refresh token therefore
// stays usable for up to the full expiry window.
type Manager struct {
	repo    Repo
	length  int
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithExpiry overrides the token lifetime used for the IssuedAt check.
// The backing repo's sweep must be configured to match.
func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

// WithTokenLength overrides the random token length in bytes.
func WithTokenLength(length int) ManagerOption {
	return func(m *Manager) {
		m.length = length
	}
}

func NewManager(repo Repo, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		length:  defaultTokenLength,
		expiry:  DefaultExpiry,
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

// Create generates a new opaque token for the user and persists it.
// Any previous token for the same user is deleted first, so at most one
// outstanding refresh token exists per user.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	if existingToken, err := m.repo.GetByUserID(ctx, userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(ctx, existingToken.Token); err != nil && !errors.Is(err, ErrNotFound) {
			return "", errors.Wrap(err, "[Manager.Create] Delete")
		}
	}

	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "[Manager.Create] rand.Read")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(ctx, &StoredRefreshToken{
		Token:    tokenStr,
		UserID:   userID,
		IssuedAt: m.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "[Manager.Create] Upsert")
	}

	return tokenStr, nil
}

// FindValid resolves a non-expired token to its user ID. Absence and
// expiry both return ErrNotFound.
func (m *Manager) FindValid(ctx context.Context, token string) (string, error) {
	rt, err := m.repo.Get(ctx, token)
	if err != nil {
		return "", ErrNotFound
	}

	if m.nowFunc().Sub(rt.IssuedAt) > m.expiry {
		_ = m.repo.Delete(ctx, token)
		return "", ErrNotFound
	}

	return rt.UserID, nil
}

// Revoke deletes a specific token. Revoking an unknown token is not an
// error; the caller cannot act on the distinction.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "[Manager.Revoke] Delete")
	}
	return nil
}
