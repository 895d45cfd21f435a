package authz

import (
	"testing"

	"github.com/me/cinedex/pkg/model"
)

func TestEnforcer_Allow(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}

	tests := []struct {
		role model.UserRole
		obj  string
		act  string
		want bool
	}{
		{model.RoleAnonymous, ObjCatalog, ActRead, true},
		{model.RoleAnonymous, ObjReviews, ActRead, true},
		{model.RoleAnonymous, ObjReviews, ActWrite, false},
		{model.RoleAnonymous, ObjBookmarks, ActRead, false},
		{"", ObjCatalog, ActRead, true},
		{model.RoleUser, ObjCatalog, ActRead, true},
		{model.RoleUser, ObjReviews, ActWrite, true},
		{model.RoleUser, ObjBookmarks, ActWrite, true},
		{model.RoleUser, ObjCatalog, ActWrite, false},
		{model.RoleUser, ObjUsers, ActRead, false},
		{model.RoleUser, ObjAdmin, ActRead, false},
		{model.RoleAdmin, ObjCatalog, ActWrite, true},
		{model.RoleAdmin, ObjUsers, ActRead, true},
		{model.RoleAdmin, ObjCache, ActWrite, true},
		{model.RoleAdmin, ObjAdmin, ActRead, true},
		{model.RoleAdmin, ObjBookmarks, ActWrite, true},
		{"intruder", ObjCatalog, ActRead, false},
	}
	for _, tt := range tests {
		if got := e.Allow(tt.role, tt.obj, tt.act); got != tt.want {
			t.Errorf("Allow(%q, %s, %s) = %v, want %v", tt.role, tt.obj, tt.act, got, tt.want)
		}
	}
}

func TestObjectFor(t *testing.T) {
	if ObjectFor(model.KindUsers) != ObjUsers {
		t.Error("users should map to the users object")
	}
	if ObjectFor(model.KindMovies) != ObjCatalog {
		t.Error("movies should map to the catalog object")
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	if err := loadPolicy(e.enforcer, "p, only, two"); err == nil {
		t.Error("expected error for short policy line")
	}
}
