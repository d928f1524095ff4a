package server

import "github.com/schooldesk/auth-server/roles"

const (
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthMe      = "/auth/me"
	RouteAuthUsers   = "/auth/users"
	RouteAuthRoles   = "/auth/roles"
	RouteHealthz     = "/healthz"
)

// Permissions gating the admin listing routes.
const (
	PermissionUsersRead roles.PermissionName = "users:read"
	PermissionRolesRead roles.PermissionName = "roles:read"
)
