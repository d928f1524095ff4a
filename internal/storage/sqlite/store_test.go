package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/schooldesk/auth-server/internal/storage/sqlite"
	"github.com/schooldesk/auth-server/roles"
	"github.com/schooldesk/auth-server/users"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("")
	require.Error(t, err)
}

func TestUserRepoRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Users()
	ctx := context.Background()

	user := &users.User{
		Email:        "a@x.com",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "hash",
		RoleID:       "teacher",
	}
	require.NoError(t, repo.Upsert(ctx, user))
	require.NotEmpty(t, user.ID)
	require.False(t, user.DateJoined.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)
	require.Equal(t, "teacher", byEmail.RoleID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", byID.Email)

	// Upsert with the same ID updates in place.
	user.RoleID = "admin"
	require.NoError(t, repo.Upsert(ctx, user))
	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", updated.RoleID)
}

func TestUserRepoNotFound(t *testing.T) {
	store := openTestStore(t)
	repo := store.Users()
	ctx := context.Background()

	_, err := repo.GetByEmail(ctx, "nouser@x.com")
	require.ErrorIs(t, err, users.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, users.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, "nouser@x.com"), users.ErrNotFound)
}

func TestUserRepoList(t *testing.T) {
	store := openTestStore(t)
	repo := store.Users()
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, repo.Upsert(ctx, &users.User{Email: email, PasswordHash: "hash"}))
	}

	all, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestRoleRepoRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := store.Roles()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &roles.Role{
		ID:          "teacher",
		Name:        "Teacher",
		Permissions: []roles.PermissionName{"students:read", "grades:write"},
	}))

	role, err := repo.Get(ctx, "teacher")
	require.NoError(t, err)
	require.Equal(t, "Teacher", role.Name)
	require.Len(t, role.Permissions, 2)

	set, err := repo.PermissionsForRole(ctx, "teacher")
	require.NoError(t, err)
	require.True(t, set.Contains("students:read"))
	require.False(t, set.Contains("roles:write"))

	_, err = repo.PermissionsForRole(ctx, "missing")
	require.ErrorIs(t, err, roles.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
