package server

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/models"
)

// handleAdminStats handles GET /api/admin/stats.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	stats, err := s.app.AdminService.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// routeAdminUsers dispatches /api/admin/users/{userId}/stats.
func (s *Server) routeAdminUsers(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/admin/users/")
	if len(parts) != 2 || parts[1] != "stats" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	stats, err := s.app.AdminService.UserStats(r.Context(), parts[0])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

type adjustWalletRequest struct {
	Amount      decimal.Decimal        `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description"`
}

// routeAdminWallets dispatches /api/admin/wallets/{userId}/{adjust|reconcile}.
func (s *Server) routeAdminWallets(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/admin/wallets/")
	if len(parts) != 2 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	userID, action := parts[0], parts[1]

	switch action {
	case "adjust":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		uc, ok := requireAdmin(w, r)
		if !ok {
			return
		}
		var body adjustWalletRequest
		if !DecodeJSON(w, r, &body) {
			return
		}
		entry, err := s.app.AdminService.AdjustWallet(r.Context(), uc.UserID, userID, body.Amount, body.Type, body.Description)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, entry)

	case "reconcile":
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		rec, err := s.app.WalletService.Reconcile(r.Context(), userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, rec)

	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

type adminOrderRequest struct {
	UserID string `json:"user_id"`
	models.TradeOrder
}

// handleAdminOrders handles GET (pending orders) and POST (order on behalf
// of a user) on /api/admin/orders.
func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	uc, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		orders, err := s.app.TradeService.ListPendingOrders(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
		return
	}

	var body adminOrderRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	trade, err := s.app.TradeService.CreateOrderForUser(r.Context(), uc.UserID, body.UserID, body.TradeOrder)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, trade)
}

// routeAdminOrders dispatches /api/admin/orders/{id}/fill.
func (s *Server) routeAdminOrders(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/admin/orders/")
	if len(parts) != 2 || parts[1] != "fill" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	trade, err := s.app.TradeService.FillOrder(r.Context(), parts[0], uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, trade)
}

// handleAdminFundingList handles GET /api/admin/funding-requests?status=.
func (s *Server) handleAdminFundingList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var status *models.FundingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.FundingStatus(raw)
		status = &st
	}
	requests, err := s.app.FundingService.ListRequests(r.Context(), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

type fundingReviewRequest struct {
	Notes         string          `json:"notes"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
}

// routeAdminFunding dispatches /api/admin/funding-requests/{id}/{approve|reject|complete}.
func (s *Server) routeAdminFunding(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/admin/funding-requests/")
	if len(parts) != 2 {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	requestID, action := parts[0], parts[1]
	if action != "approve" && action != "reject" && action != "complete" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var body fundingReviewRequest
	if r.ContentLength != 0 && !DecodeJSON(w, r, &body) {
		return
	}

	var (
		req *models.FundingRequest
		err error
	)
	switch action {
	case "approve":
		req, err = s.app.FundingService.Approve(r.Context(), requestID, uc.UserID, body.Notes)
	case "reject":
		req, err = s.app.FundingService.Reject(r.Context(), requestID, uc.UserID, body.Notes)
	case "complete":
		req, err = s.app.FundingService.Complete(r.Context(), requestID, uc.UserID, body.DepositAmount, body.Notes)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, req)
}
