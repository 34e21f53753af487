package server

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// handleWalletGet handles GET /api/wallet.
func (s *Server) handleWalletGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	wallet, err := s.app.WalletService.GetWallet(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, wallet)
}

// handleWalletTransactions handles GET /api/wallet/transactions?limit=.
func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(r)
	if !ok {
		WriteErrorWithCode(w, http.StatusBadRequest, "limit must be a non-negative integer", "invalid_input")
		return
	}

	wallet, err := s.app.WalletService.GetWallet(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	entries, err := s.app.WalletService.ListTransactions(r.Context(), wallet.ID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": entries})
}

// handlePortfolioGet handles GET /api/portfolio.
func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	view, err := s.app.PortfolioService.GetHoldings(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// handlePortfolioStats handles GET /api/portfolio/stats.
func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	stats, err := s.app.PortfolioService.GetStats(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// handlePortfolioRefresh handles POST /api/portfolio/refresh.
func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := s.app.PortfolioService.RefreshPrices(r.Context(), uc.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

type fundingSubmitRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Message string          `json:"message"`
}

// handleFundingRequests handles GET and POST /api/funding-requests.
func (s *Server) handleFundingRequests(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		requests, err := s.app.FundingService.ListUserRequests(r.Context(), uc.UserID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
		return
	}

	var body fundingSubmitRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	req, err := s.app.FundingService.Submit(r.Context(), uc.UserID, uc.Email, body.Amount, body.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, req)
}
