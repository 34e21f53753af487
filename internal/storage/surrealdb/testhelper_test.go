package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
	tcommon "github.com/bobmcallan/papertrade/tests/common"
)

// testDB returns a connection to a fresh database on the shared container.
func testDB(t *testing.T) *surreal.DB {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}
	if _, err := db.SignIn(ctx, map[string]interface{}{"user": "root", "pass": "root"}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// SurrealDB rejects "/" in database names
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "papertrade_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := newManager(context.Background(), testDB(t), common.NewSilentLogger())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func walletAt(userID string, version int64, balance string) *models.Wallet {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Wallet{
		ID:               "wlt_" + userID,
		UserID:           userID,
		Balance:          d(balance),
		AvailableBalance: d(balance),
		Currency:         models.DefaultCurrency,
		Status:           models.WalletStatusActive,
		Version:          version,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func entry(id, walletID string, seq int64, amount, before, after string) *models.WalletTransaction {
	return &models.WalletTransaction{
		ID: id, WalletID: walletID, Type: models.TransactionDeposit,
		Amount: d(amount), BalanceBefore: d(before), BalanceAfter: d(after),
		Status: models.TransactionCompleted, Sequence: seq,
		CreatedAt: time.Now().UTC(), CreatedBy: models.ActorSystem,
	}
}
