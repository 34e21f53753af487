package models

// WalletWrite stages a wallet state. Create asserts the wallet does not exist
// yet, otherwise the stored version must equal ExpectedVersion.
type WalletWrite struct {
	Wallet          *Wallet
	ExpectedVersion int64
	Create          bool
}

// HoldingWrite stages a holding state or its removal.
type HoldingWrite struct {
	Holding         *PortfolioHolding
	ExpectedVersion int64
	Create          bool
	Delete          bool
}

// TradeWrite stages a trade. Existing trades must still be in ExpectedStatus.
type TradeWrite struct {
	Trade          *Trade
	ExpectedStatus TradeStatus
	Create         bool
}

// FundingWrite stages a funding request. Existing requests must still be in
// ExpectedStatus.
type FundingWrite struct {
	Request        *FundingRequest
	ExpectedStatus FundingStatus
	Create         bool
}

// ChangeSet collects every write of one compound operation. A store applies
// it entirely or not at all.
type ChangeSet struct {
	Wallets         []WalletWrite
	Transactions    []*WalletTransaction
	Holdings        []HoldingWrite
	Trades          []TradeWrite
	FundingRequests []FundingWrite
}

// Empty reports whether nothing is staged.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Wallets) == 0 && len(cs.Transactions) == 0 && len(cs.Holdings) == 0 &&
		len(cs.Trades) == 0 && len(cs.FundingRequests) == 0
}

// StagedWallet returns the latest staged state for userID, or nil.
func (cs *ChangeSet) StagedWallet(userID string) *Wallet {
	for i := range cs.Wallets {
		if cs.Wallets[i].Wallet.UserID == userID {
			return cs.Wallets[i].Wallet
		}
	}
	return nil
}

// PutWallet stages w. A second write for the same wallet replaces the state
// but keeps the guard of the first.
func (cs *ChangeSet) PutWallet(w *Wallet, expectedVersion int64, create bool) {
	for i := range cs.Wallets {
		if cs.Wallets[i].Wallet.UserID == w.UserID {
			cs.Wallets[i].Wallet = w
			return
		}
	}
	cs.Wallets = append(cs.Wallets, WalletWrite{Wallet: w, ExpectedVersion: expectedVersion, Create: create})
}

// AddTransaction stages a new ledger entry.
func (cs *ChangeSet) AddTransaction(t *WalletTransaction) {
	cs.Transactions = append(cs.Transactions, t)
}

// StagedHolding returns the staged write for id, if any.
func (cs *ChangeSet) StagedHolding(id string) (HoldingWrite, bool) {
	for _, hw := range cs.Holdings {
		if hw.Holding.ID == id {
			return hw, true
		}
	}
	return HoldingWrite{}, false
}

// PutHolding stages a holding write, merging with an earlier write for the same id.
func (cs *ChangeSet) PutHolding(hw HoldingWrite) {
	for i := range cs.Holdings {
		if cs.Holdings[i].Holding.ID == hw.Holding.ID {
			prev := cs.Holdings[i]
			hw.ExpectedVersion = prev.ExpectedVersion
			hw.Create = prev.Create && !hw.Delete
			if prev.Create && hw.Delete {
				// created and removed inside one change set: nothing to persist
				cs.Holdings = append(cs.Holdings[:i], cs.Holdings[i+1:]...)
				return
			}
			cs.Holdings[i] = hw
			return
		}
	}
	cs.Holdings = append(cs.Holdings, hw)
}

// PutTrade stages a trade write.
func (cs *ChangeSet) PutTrade(t *Trade, expected TradeStatus, create bool) {
	cs.Trades = append(cs.Trades, TradeWrite{Trade: t, ExpectedStatus: expected, Create: create})
}

// PutFundingRequest stages a funding request write.
func (cs *ChangeSet) PutFundingRequest(r *FundingRequest, expected FundingStatus, create bool) {
	cs.FundingRequests = append(cs.FundingRequests, FundingWrite{Request: r, ExpectedStatus: expected, Create: create})
}
