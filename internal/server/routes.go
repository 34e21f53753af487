package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/metrics"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.Handle("/metrics", metrics.Handler())

	// Wallet
	mux.HandleFunc("/api/wallet", s.handleWalletGet)
	mux.HandleFunc("/api/wallet/transactions", s.handleWalletTransactions)

	// Portfolio
	mux.HandleFunc("/api/portfolio", s.handlePortfolioGet)
	mux.HandleFunc("/api/portfolio/stats", s.handlePortfolioStats)
	mux.HandleFunc("/api/portfolio/refresh", s.handlePortfolioRefresh)

	// Trades
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/trades/", s.routeTrades)

	// Funding
	mux.HandleFunc("/api/funding-requests", s.handleFundingRequests)

	// Admin
	mux.HandleFunc("/api/admin/stats", s.handleAdminStats)
	mux.HandleFunc("/api/admin/users/", s.routeAdminUsers)
	mux.HandleFunc("/api/admin/wallets/", s.routeAdminWallets)
	mux.HandleFunc("/api/admin/orders", s.handleAdminOrders)
	mux.HandleFunc("/api/admin/orders/", s.routeAdminOrders)
	mux.HandleFunc("/api/admin/funding-requests", s.handleAdminFundingList)
	mux.HandleFunc("/api/admin/funding-requests/", s.routeAdminFunding)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}
