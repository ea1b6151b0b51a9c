package auth

import (
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// rbacModel resolves role inheritance (g) and role -> permission grants (p).
const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// Authority answers "which permissions does this role hold". The table is
// loaded into a casbin RBAC model once at construction and flattened into
// per-role sets, so lookups afterwards are pure map reads with no error
// cases.
type Authority struct {
	enforcer *casbin.Enforcer
	perms    map[Role]map[Permission]struct{}
}

// NewAuthority builds the Authority from the static grant table.
func NewAuthority() (*Authority, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	var policies [][]string
	for _, role := range Roles {
		for _, p := range grants[role] {
			policies = append(policies, []string{string(role), string(p)})
		}
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	var groupings [][]string
	for _, role := range Roles {
		if parent, ok := inherits[role]; ok {
			groupings = append(groupings, []string{string(role), string(parent)})
		}
	}
	if _, err := enforcer.AddGroupingPolicies(groupings); err != nil {
		return nil, fmt.Errorf("failed to load role inheritance: %w", err)
	}

	perms := make(map[Role]map[Permission]struct{}, len(Roles))
	for _, role := range Roles {
		rules, err := enforcer.GetImplicitPermissionsForUser(string(role))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve permissions for %s: %w", role, err)
		}
		set := make(map[Permission]struct{}, len(rules))
		for _, rule := range rules {
			if len(rule) < 2 {
				continue
			}
			set[Permission(rule[1])] = struct{}{}
		}
		perms[role] = set
	}

	return &Authority{enforcer: enforcer, perms: perms}, nil
}

// MustNewAuthority is NewAuthority for static initialization.
func MustNewAuthority() *Authority {
	a, err := NewAuthority()
	if err != nil {
		panic(err)
	}
	return a
}

// PermissionsFor returns the sorted permission set of role. Unknown roles
// get an empty set.
func (a *Authority) PermissionsFor(role Role) []Permission {
	set := a.perms[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoleHas reports whether role holds permission.
func (a *Authority) RoleHas(role Role, permission Permission) bool {
	_, ok := a.perms[role][permission]
	return ok
}

// Publish overwrites the policy table behind adapter with the static grants,
// keeping stored configuration in step with the code. Stored rows are never
// read back.
func (a *Authority) Publish(adapter persist.Adapter) error {
	if err := adapter.SavePolicy(a.enforcer.GetModel()); err != nil {
		return fmt.Errorf("failed to publish policies: %w", err)
	}
	return nil
}

// NewPolicyAdapter creates the sqlx-backed casbin adapter that stores
// policies in the casbin_rule table.
func NewPolicyAdapter(driverName, dsn string) persist.Adapter {
	opts := &sqlxadapter.AdapterOptions{
		DriverName:     driverName,
		DataSourceName: dsn,
		TableName:      "casbin_rule",
	}
	return sqlxadapter.NewAdapterFromOptions(opts)
}
