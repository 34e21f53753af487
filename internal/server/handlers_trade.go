package server

import (
	"net/http"

	"github.com/bobmcallan/papertrade/internal/models"
)

// handleTrades handles GET and POST /api/trades.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		limit, ok := queryLimit(r)
		if !ok {
			WriteErrorWithCode(w, http.StatusBadRequest, "limit must be a non-negative integer", "invalid_input")
			return
		}
		trades, err := s.app.TradeService.ListTrades(r.Context(), uc.UserID, limit)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
		return
	}

	var order models.TradeOrder
	if !DecodeJSON(w, r, &order) {
		return
	}
	trade, err := s.app.TradeService.ExecuteTrade(r.Context(), uc.UserID, order)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, trade)
}

// routeTrades dispatches /api/trades/{id}/cancel.
func (s *Server) routeTrades(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/trades/")
	if len(parts) != 2 || parts[1] != "cancel" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	uc, ok := requireUser(w, r)
	if !ok {
		return
	}

	trade, err := s.app.TradeService.CancelTrade(r.Context(), uc.UserID, parts[0])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, trade)
}
