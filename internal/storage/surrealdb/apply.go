package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/papertrade/internal/models"
)

const guardMessage = "concurrent update"

// txBuilder accumulates the statements and variables of one transaction.
type txBuilder struct {
	stmts []string
	vars  map[string]any
	n     int
}

func (b *txBuilder) next(prefix string) string {
	b.n++
	return fmt.Sprintf("%s%d", prefix, b.n)
}

func (b *txBuilder) add(stmt string) {
	b.stmts = append(b.stmts, stmt)
}

func (b *txBuilder) guardVersion(name, what string, create bool, expected int64) {
	if create {
		b.add(fmt.Sprintf(`IF $%s_rid.version != NONE { THROW "%s: %s exists" }`, name, guardMessage, what))
		return
	}
	b.vars[name+"_exp"] = expected
	b.add(fmt.Sprintf(`IF $%s_rid.version != $%s_exp { THROW "%s: %s changed" }`, name, name, guardMessage, what))
}

func (b *txBuilder) guardStatus(name, what string, create bool, expected string) {
	if create {
		b.add(fmt.Sprintf(`IF $%s_rid.status != NONE { THROW "%s: %s exists" }`, name, guardMessage, what))
		return
	}
	b.vars[name+"_exp"] = expected
	b.add(fmt.Sprintf(`IF $%s_rid.status != $%s_exp { THROW "%s: %s changed" }`, name, name, guardMessage, what))
}

func (b *txBuilder) write(name, table, id string, content any, create bool) {
	b.vars[name+"_rid"] = surrealmodels.NewRecordID(table, id)
	b.vars[name+"_doc"] = content
	verb := "UPSERT"
	if create {
		verb = "CREATE"
	}
	b.add(fmt.Sprintf("%s $%s_rid CONTENT $%s_doc", verb, name, name))
}

func (b *txBuilder) sql() string {
	return "BEGIN TRANSACTION;\n" + strings.Join(b.stmts, ";\n") + ";\nCOMMIT TRANSACTION;"
}

// Apply commits cs as a single SurrealDB transaction. Guards THROW inside the
// transaction, which cancels every statement in it.
func (m *Manager) Apply(ctx context.Context, cs *models.ChangeSet) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	b := &txBuilder{vars: map[string]any{}}

	for _, w := range cs.Wallets {
		name := b.next("w")
		b.vars[name+"_rid"] = surrealmodels.NewRecordID(tableWallet, w.Wallet.UserID)
		b.guardVersion(name, "wallet "+w.Wallet.UserID, w.Create, w.ExpectedVersion)
		b.write(name, tableWallet, w.Wallet.UserID, toWalletRecord(w.Wallet), w.Create)
	}
	for _, t := range cs.Transactions {
		name := b.next("t")
		b.write(name, tableTransaction, t.ID, toTransactionRecord(t), true)
	}
	for _, h := range cs.Holdings {
		name := b.next("h")
		id := h.Holding.ID
		b.vars[name+"_rid"] = surrealmodels.NewRecordID(tableHolding, id)
		b.guardVersion(name, "holding "+id, h.Create, h.ExpectedVersion)
		if h.Delete {
			b.add(fmt.Sprintf("DELETE $%s_rid", name))
			continue
		}
		b.write(name, tableHolding, id, toHoldingRecord(h.Holding), h.Create)
	}
	for _, t := range cs.Trades {
		name := b.next("tr")
		b.vars[name+"_rid"] = surrealmodels.NewRecordID(tableTrade, t.Trade.ID)
		b.guardStatus(name, "trade "+t.Trade.ID, t.Create, string(t.ExpectedStatus))
		b.write(name, tableTrade, t.Trade.ID, toTradeRecord(t.Trade), t.Create)
	}
	for _, f := range cs.FundingRequests {
		name := b.next("f")
		b.vars[name+"_rid"] = surrealmodels.NewRecordID(tableFundingRequest, f.Request.ID)
		b.guardStatus(name, "funding request "+f.Request.ID, f.Create, string(f.ExpectedStatus))
		b.write(name, tableFundingRequest, f.Request.ID, toFundingRecord(f.Request), f.Create)
	}

	results, err := surrealdb.Query[any](ctx, m.db, b.sql(), b.vars)
	if err != nil {
		if strings.Contains(err.Error(), guardMessage) {
			return fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
		}
		return fmt.Errorf("failed to apply change set: %w", err)
	}
	if results != nil {
		for _, r := range *results {
			if r.Status == "ERR" {
				return fmt.Errorf("%w: transaction cancelled", models.ErrConcurrentUpdate)
			}
		}
	}

	m.logger.Debug().
		Int("wallets", len(cs.Wallets)).
		Int("transactions", len(cs.Transactions)).
		Int("holdings", len(cs.Holdings)).
		Int("trades", len(cs.Trades)).
		Int("funding_requests", len(cs.FundingRequests)).
		Msg("Change set applied")
	return nil
}
