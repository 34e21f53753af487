package common

import (
	"context"

	"github.com/bobmcallan/papertrade/internal/models"
)

// IsAdmin reports whether the caller may use back-office operations.
func IsAdmin(uc *UserContext) bool {
	return uc != nil && uc.UserID != "" && uc.Role == models.RoleAdmin
}

// IsAdminContext is IsAdmin for the caller stored in ctx.
func IsAdminContext(ctx context.Context) bool {
	return IsAdmin(UserContextFromContext(ctx))
}

// OperatorContext marks ctx as acting for adminID outside a request, as the
// CLI does. The caller is trusted with the admin role.
func OperatorContext(ctx context.Context, adminID string) context.Context {
	return WithUserContext(ctx, &UserContext{UserID: adminID, Role: models.RoleAdmin})
}

// RequireAdmin guards back-office service calls. The caller in ctx must be an
// admin and must be the admin named as acting.
func RequireAdmin(ctx context.Context, adminID string) error {
	if adminID == "" {
		return models.ErrForbidden
	}
	uc := UserContextFromContext(ctx)
	if !IsAdmin(uc) || uc.UserID != adminID {
		return models.ErrForbidden
	}
	return nil
}
