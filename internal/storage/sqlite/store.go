package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schooldesk/auth-server/roles"
	"github.com/schooldesk/auth-server/users"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role_id       TEXT NOT NULL DEFAULT '',
	date_joined   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS roles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	permissions TEXT NOT NULL DEFAULT ''
);
`

// Store implements the identity and role repositories over one SQLite file,
// so both share the same transaction and visibility boundaries.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Users returns the identity repository view of the store.
func (s *Store) Users() users.Repo {
	return &userRepo{db: s.db}
}

// Roles returns the role repository view of the store.
func (s *Store) Roles() roles.Repo {
	return &roleRepo{db: s.db}
}

// toMillis normalizes timestamps into millisecond UTC for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

type userRepo struct {
	db *sql.DB
}

var _ users.Repo = (*userRepo)(nil)

func (r *userRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	const query = `
INSERT INTO users (id, email, first_name, last_name, password_hash, role_id, date_joined)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	first_name = excluded.first_name,
	last_name = excluded.last_name,
	password_hash = excluded.password_hash,
	role_id = excluded.role_id;
`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.RoleID, toMillis(user.DateJoined))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

const selectUser = `SELECT id, email, first_name, last_name, password_hash, role_id, date_joined FROM users`

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var userList []*users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		userList = append(userList, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}
	return userList, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepo) scanOne(row *sql.Row) (*users.User, error) {
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, users.ErrNotFound
	}
	return user, err
}

func scanUser(row rowScanner) (*users.User, error) {
	var user users.User
	var dateJoined int64
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.RoleID, &dateJoined); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.DateJoined = fromMillis(dateJoined)
	return &user, nil
}

type roleRepo struct {
	db *sql.DB
}

var _ roles.Repo = (*roleRepo)(nil)

// Permission lists are stored as a comma-joined TEXT column; permission
// names must not contain commas.
func (r *roleRepo) Upsert(ctx context.Context, role *roles.Role) error {
	const query = `
INSERT INTO roles (id, name, permissions)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	permissions = excluded.permissions;
`
	_, err := r.db.ExecContext(ctx, query, role.ID, role.Name, joinPermissions(role.Permissions))
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

func (r *roleRepo) Get(ctx context.Context, id string) (*roles.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, permissions FROM roles WHERE id = ?`, id)

	var role roles.Role
	var permissions string
	if err := row.Scan(&role.ID, &role.Name, &permissions); err != nil {
		if err == sql.ErrNoRows {
			return nil, roles.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	role.Permissions = splitPermissions(permissions)
	return &role, nil
}

func (r *roleRepo) PermissionsForRole(ctx context.Context, id string) (roles.PermissionSet, error) {
	role, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return role.Set(), nil
}

func (r *roleRepo) List(ctx context.Context) ([]*roles.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, permissions FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roleList []*roles.Role
	for rows.Next() {
		var role roles.Role
		var permissions string
		if err := rows.Scan(&role.ID, &role.Name, &permissions); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role.Permissions = splitPermissions(permissions)
		roleList = append(roleList, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles rows: %w", err)
	}
	return roleList, nil
}

func joinPermissions(permissions []roles.PermissionName) string {
	parts := make([]string, 0, len(permissions))
	for _, p := range permissions {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}

func splitPermissions(encoded string) []roles.PermissionName {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, ",")
	permissions := make([]roles.PermissionName, 0, len(parts))
	for _, p := range parts {
		permissions = append(permissions, roles.PermissionName(p))
	}
	return permissions
}
