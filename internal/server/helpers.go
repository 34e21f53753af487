package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// FundingRequired tells the client to offer a funding request.
	FundingRequired bool `json:"funding_required,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// errorMapping ties a sentinel to its HTTP status and stable code.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{models.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{models.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{models.ErrInsufficientShares, http.StatusUnprocessableEntity, "insufficient_shares"},
	{models.ErrPositionNotFound, http.StatusUnprocessableEntity, "position_not_found"},
	{models.ErrForbidden, http.StatusForbidden, "forbidden"},
	{models.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found"},
	{models.ErrTradeNotFound, http.StatusNotFound, "trade_not_found"},
	{models.ErrFundingRequestNotFound, http.StatusNotFound, "funding_request_not_found"},
	{models.ErrWalletExists, http.StatusConflict, "wallet_exists"},
	{models.ErrOrderNotPending, http.StatusConflict, "order_not_pending"},
	{models.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{models.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
	{models.ErrQuoteUnavailable, http.StatusServiceUnavailable, "quote_unavailable"},
	{models.ErrPriceUnavailable, http.StatusServiceUnavailable, "price_unavailable"},
}

// statusForError maps a service error to an HTTP status and code.
func statusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeServiceError renders a service error. Unknown errors are logged and
// hidden behind a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		WriteErrorWithCode(w, status, "Internal server error", code)
		return
	}
	WriteJSON(w, status, ErrorResponse{
		Error:           err.Error(),
		Code:            code,
		FundingRequired: errors.Is(err, models.ErrInsufficientFunds),
	})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), "invalid_input")
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For /api/trades/{id}/cancel, PathParam(r, "/api/trades/", "/cancel") returns {id}.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// splitPath returns the segments after prefix, e.g. "{id}/approve" -> [id approve].
func splitPath(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// queryLimit reads ?limit=, returning 0 (service default) when absent.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// requireUser returns the authenticated caller or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteErrorWithCode(w, http.StatusUnauthorized, "Authentication required", "unauthorized")
		return nil, false
	}
	return uc, true
}

// requireAdmin returns the authenticated admin or writes 401/403.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*common.UserContext, bool) {
	uc, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	if !common.IsAdmin(uc) {
		WriteErrorWithCode(w, http.StatusForbidden, "Admin access required", "forbidden")
		return nil, false
	}
	return uc, true
}
