package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/schooldesk/auth-server/roles"
	"github.com/schooldesk/auth-server/users"
)

const adminEmail = "admin@schooldesk.local"

var defaultRoles = []*roles.Role{
	{
		ID:   "admin",
		Name: "Administrator",
		Permissions: []roles.PermissionName{
			PermissionUsersRead, "users:write",
			PermissionRolesRead, "roles:write",
			"students:read", "students:write",
			"grades:read", "grades:write",
		},
	},
	{
		ID:   "teacher",
		Name: "Teacher",
		Permissions: []roles.PermissionName{
			"students:read",
			"grades:read", "grades:write",
		},
	},
	{
		ID:   "student",
		Name: "Student",
		Permissions: []roles.PermissionName{
			"grades:read",
		},
	},
}

// InitialiseSystem seeds the default roles and, on an empty user store,
// creates the initial admin account with a generated password. The
// password is logged exactly once; it cannot be recovered afterwards.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	for _, role := range defaultRoles {
		_, err := s.repos.Roles.Get(ctx, role.ID)
		if err == nil {
			continue // Already seeded, leave any local edits alone
		}
		if !errors.Is(err, roles.ErrNotFound) {
			return errors.Wrapf(err, "[InitialiseSystem] Roles.Get %q", role.ID)
		}
		if err := s.repos.Roles.Upsert(ctx, role); err != nil {
			return errors.Wrapf(err, "[InitialiseSystem] Roles.Upsert %q", role.ID)
		}
	}

	existing, err := s.repos.Users.List(ctx, 0, 1)
	if err != nil {
		return errors.Wrap(err, "[InitialiseSystem] Users.List")
	}
	if len(existing) > 0 {
		return nil
	}

	password, err := generatePassword()
	if err != nil {
		return errors.Wrap(err, "[InitialiseSystem] generatePassword")
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[InitialiseSystem] HashPassword")
	}

	admin := &users.User{
		Email:        adminEmail,
		FirstName:    "System",
		LastName:     "Administrator",
		PasswordHash: passwordHash,
		RoleID:       "admin",
	}
	if err := s.repos.Users.Upsert(ctx, admin); err != nil {
		return errors.Wrap(err, "[InitialiseSystem] Users.Upsert admin")
	}

	s.logger.Warn().
		Str("email", adminEmail).
		Str("password", password).
		Msg("created initial admin user, change the password after first login")

	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
