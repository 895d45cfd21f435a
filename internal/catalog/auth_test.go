package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/me/cinedex/pkg/model"
)

func TestAuthenticate(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	u := &model.User{UserName: "bob"}
	if err := SetPassword(u, "s3cret-pass"); err != nil {
		t.Fatal(err)
	}
	svc.Save(ctx, u)

	got, err := svc.Authenticate(ctx, "bob", "s3cret-pass")
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate = %v, %v", got, err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestSetPassword_TooShort(t *testing.T) {
	var apiErr *model.APIError
	if err := SetPassword(&model.User{}, "short"); !errors.As(err, &apiErr) {
		t.Errorf("err = %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "root:changeme123"); err != nil {
		t.Fatal(err)
	}
	u, err := svc.Authenticate(ctx, "root", "changeme123")
	if err != nil || !u.IsAdmin() {
		t.Fatalf("admin = %+v, %v", u, err)
	}
	// Existing accounts are left alone.
	if err := svc.EnsureAdmin(ctx, "root:different-pass"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, "root", "changeme123"); err != nil {
		t.Error("existing admin password was replaced")
	}
	if err := svc.EnsureAdmin(ctx, "nocolon"); err == nil {
		t.Error("expected error for malformed pair")
	}
}
