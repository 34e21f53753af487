package common

import (
	"context"
	"errors"
	"testing"

	"github.com/bobmcallan/papertrade/internal/models"
)

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	if uc := UserContextFromContext(ctx); uc != nil {
		t.Error("Expected nil UserContext from empty context")
	}
	if id := ResolveUserID(ctx); id != "" {
		t.Errorf("Expected empty user id, got %q", id)
	}

	ctx = WithUserContext(ctx, &UserContext{UserID: "user-123", Email: "a@example.com", Role: models.RoleUser})

	got := UserContextFromContext(ctx)
	if got == nil {
		t.Fatal("Expected non-nil UserContext")
	}
	if got.UserID != "user-123" {
		t.Errorf("Expected user-123, got %s", got.UserID)
	}
	if ResolveUserID(ctx) != "user-123" {
		t.Errorf("ResolveUserID = %q", ResolveUserID(ctx))
	}
}

func TestIsAdmin_UsesRoleNotEmail(t *testing.T) {
	tests := []struct {
		name string
		uc   *UserContext
		want bool
	}{
		{"nil", nil, false},
		{"admin role", &UserContext{UserID: "u1", Role: models.RoleAdmin}, true},
		{"admin-looking email", &UserContext{UserID: "u2", Email: "admin@example.com", Role: models.RoleUser}, false},
		{"admin role without id", &UserContext{Role: models.RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdmin(tt.uc); got != tt.want {
				t.Errorf("IsAdmin = %v, want %v", got, tt.want)
			}
		})
	}

	ctx := WithUserContext(context.Background(), &UserContext{UserID: "ops", Role: models.RoleAdmin})
	if !IsAdminContext(ctx) {
		t.Error("IsAdminContext should be true for admin caller")
	}
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	if err := RequireAdmin(ctx, ""); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("empty admin id: got %v, want ErrForbidden", err)
	}
	if err := RequireAdmin(ctx, "ops"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("no caller: got %v, want ErrForbidden", err)
	}
	if err := RequireAdmin(OperatorContext(ctx, "ops"), "ops"); err != nil {
		t.Errorf("operator: got %v, want nil", err)
	}

	userCtx := WithUserContext(ctx, &UserContext{UserID: "u1", Role: models.RoleUser})
	if err := RequireAdmin(userCtx, "u1"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("plain user: got %v, want ErrForbidden", err)
	}

	adminCtx := WithUserContext(ctx, &UserContext{UserID: "a1", Role: models.RoleAdmin})
	if err := RequireAdmin(adminCtx, "a1"); err != nil {
		t.Errorf("admin: got %v, want nil", err)
	}
	if err := RequireAdmin(adminCtx, "a2"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("admin acting as another: got %v, want ErrForbidden", err)
	}
}
