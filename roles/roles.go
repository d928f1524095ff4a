package roles

// PermissionName identifies a single guarded action, e.g. "students:read".
type PermissionName string

// Role groups a set of permissions under an ID referenced by user records.
type Role struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Permissions []PermissionName `json:"permissions"`
}

// PermissionSet answers membership checks for a role's permissions.
type PermissionSet map[PermissionName]struct{}

func (ps PermissionSet) Contains(permission PermissionName) bool {
	_, ok := ps[permission]
	return ok
}

// Set returns the role's permissions as a PermissionSet.
func (r *Role) Set() PermissionSet {
	set := make(PermissionSet, len(r.Permissions))
	for _, p := range r.Permissions {
		set[p] = struct{}{}
	}
	return set
}
