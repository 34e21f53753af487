package app

import (
	"time"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// BreakglassUserID is the subject of the startup admin token.
const BreakglassUserID = "breakglass-admin"

// IssueBreakglassToken mints an admin bearer token and logs it once, so an
// operator can reach the back-office before any identity provider is wired.
// Returns "" when disabled or in production.
func (a *App) IssueBreakglassToken() string {
	if !a.Config.Auth.Breakglass {
		return ""
	}
	if a.Config.IsProduction() {
		a.Logger.Warn().Msg("Break-glass token disabled in production")
		return ""
	}

	token, err := common.SignToken(a.Config.Auth, common.UserContext{
		UserID: BreakglassUserID,
		Email:  "admin@papertrade.local",
		Role:   models.RoleAdmin,
	}, time.Now())
	if err != nil {
		a.Logger.Error().Err(err).Msg("Failed to mint break-glass token")
		return ""
	}

	a.Logger.Warn().
		Str("user_id", BreakglassUserID).
		Str("token", token).
		Dur("expires_in", a.Config.Auth.GetTokenExpiry()).
		Msg("Break-glass admin token issued")
	return token
}
