// Package authz decides which role may perform which action, using a
// Casbin RBAC model embedded in the binary.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	cmodel "github.com/me/cinedex/pkg/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects guarded by the policy.
const (
	ObjCatalog   = "catalog"
	ObjUsers     = "users"
	ObjReviews   = "reviews"
	ObjBookmarks = "bookmarks"
	ObjCache     = "cache"
	ObjAdmin     = "admin"
)

// Actions.
const (
	ActRead  = "read"
	ActWrite = "write"
)

// Enforcer answers role/object/action questions.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: e}, nil
}

// loadPolicy parses CSV policy lines ("p, sub, obj, act" and "g, a, b").
func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allow reports whether role may perform act on obj. Errors deny.
func (e *Enforcer) Allow(role cmodel.UserRole, obj, act string) bool {
	if role == "" {
		role = cmodel.RoleAnonymous
	}
	ok, err := e.enforcer.Enforce(string(role), obj, act)
	return err == nil && ok
}

// ObjectFor maps an entity kind to the policy object guarding its writes.
func ObjectFor(kind cmodel.EntityKind) string {
	if kind == cmodel.KindUsers {
		return ObjUsers
	}
	return ObjCatalog
}
