package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a token is absent from the store. Expired
// and never-issued tokens are indistinguishable: once the store's sweep has
// removed a token it must never resurface.
var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record behind an opaque refresh
// token. The client only ever sees the Token string.
type StoredRefreshToken struct {
	Token    string
	UserID   string
	IssuedAt time.Time
}

// Repo persists refresh token records. Implementations own the TTL sweep:
// records older than the configured expiry must eventually disappear
// without any call from this package.
type Repo interface {
	Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error
	Get(ctx context.Context, token string) (*StoredRefreshToken, error)
	GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error)
	Delete(ctx context.Context, token string) error
}
