package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/papertrade/internal/models"
)

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetQuote(t *testing.T) {
	srv := serve(t, `{"Global Quote":{"01. symbol":"IBM","05. price":"142.1000","07. latest trading day":"2024-03-01",
		"08. previous close":"140.0000","09. change":"2.1000","10. change percent":"1.5000%"}}`)

	q, err := NewClient("key", WithBaseURL(srv.URL)).GetQuote(context.Background(), "IBM")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("142.1")))
	assert.True(t, q.ChangePercent.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, q.PreviousClose.Equal(decimal.RequireFromString("140")))
	assert.Equal(t, Name, q.Source)
	assert.Equal(t, 2024, q.Timestamp.Year())
}

func TestGetQuote_Throttled(t *testing.T) {
	for _, body := range []string{
		`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}`,
		`{"Information":"You have reached the daily limit"}`,
	} {
		srv := serve(t, body)
		_, err := NewClient("key", WithBaseURL(srv.URL)).GetQuote(context.Background(), "IBM")
		assert.ErrorIs(t, err, models.ErrRateLimited)
	}
}

func TestGetQuote_EmptyQuote(t *testing.T) {
	srv := serve(t, `{"Global Quote":{}}`)
	_, err := NewClient("key", WithBaseURL(srv.URL)).GetQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
}
