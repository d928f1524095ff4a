package fakerolerepo

import (
	"context"
	"sort"
	"sync"

	"github.com/schooldesk/auth-server/roles"
)

var _ roles.Repo = (*FakeRoleRepo)(nil)

type FakeRoleRepo struct {
	roles map[string]*roles.Role
	lock  sync.RWMutex
}

func NewFakeRoleRepo() *FakeRoleRepo {
	return &FakeRoleRepo{
		roles: make(map[string]*roles.Role),
	}
}

func (rr *FakeRoleRepo) Upsert(ctx context.Context, role *roles.Role) error {
	rr.lock.Lock()
	defer rr.lock.Unlock()

	rr.roles[role.ID] = role
	return nil
}

func (rr *FakeRoleRepo) Get(ctx context.Context, id string) (*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	role, ok := rr.roles[id]
	if !ok {
		return nil, roles.ErrNotFound
	}
	return role, nil
}

func (rr *FakeRoleRepo) PermissionsForRole(ctx context.Context, id string) (roles.PermissionSet, error) {
	role, err := rr.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return role.Set(), nil
}

func (rr *FakeRoleRepo) List(ctx context.Context) ([]*roles.Role, error) {
	rr.lock.RLock()
	defer rr.lock.RUnlock()

	roleList := make([]*roles.Role, 0, len(rr.roles))
	for _, v := range rr.roles {
		roleList = append(roleList, v)
	}
	sort.Slice(roleList, func(i, j int) bool {
		return roleList[i].ID < roleList[j].ID
	})
	return roleList, nil
}
