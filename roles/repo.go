package roles

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no role matches.
var ErrNotFound = errors.New("role not found")

type Repo interface {
	Upsert(ctx context.Context, role *Role) error
	Get(ctx context.Context, id string) (*Role, error)
	PermissionsForRole(ctx context.Context, id string) (PermissionSet, error)
	List(ctx context.Context) ([]*Role, error)
}
