package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSet_PutWalletKeepsFirstGuard(t *testing.T) {
	cs := &ChangeSet{}
	assert.True(t, cs.Empty())

	cs.PutWallet(&Wallet{UserID: "u1", Version: 4}, 3, false)
	cs.PutWallet(&Wallet{UserID: "u1", Version: 5}, 4, false)

	require.Len(t, cs.Wallets, 1)
	assert.Equal(t, int64(3), cs.Wallets[0].ExpectedVersion)
	assert.Equal(t, int64(5), cs.StagedWallet("u1").Version)
	assert.Nil(t, cs.StagedWallet("u2"))
	assert.False(t, cs.Empty())
}

func TestChangeSet_PutHoldingMerge(t *testing.T) {
	t.Run("update after update keeps first expected version", func(t *testing.T) {
		cs := &ChangeSet{}
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 3}, ExpectedVersion: 2})
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 4}, ExpectedVersion: 3})

		hw, ok := cs.StagedHolding("h")
		require.True(t, ok)
		assert.Equal(t, int64(2), hw.ExpectedVersion)
		assert.Equal(t, int64(4), hw.Holding.Version)
	})

	t.Run("create then update stays a create", func(t *testing.T) {
		cs := &ChangeSet{}
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 1}, Create: true})
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 2}, ExpectedVersion: 1})

		hw, ok := cs.StagedHolding("h")
		require.True(t, ok)
		assert.True(t, hw.Create)
	})

	t.Run("create then delete cancels out", func(t *testing.T) {
		cs := &ChangeSet{}
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 1}, Create: true})
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h"}, ExpectedVersion: 1, Delete: true})

		_, ok := cs.StagedHolding("h")
		assert.False(t, ok)
		assert.True(t, cs.Empty())
	})

	t.Run("update then delete is a guarded delete", func(t *testing.T) {
		cs := &ChangeSet{}
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h", Version: 6}, ExpectedVersion: 5})
		cs.PutHolding(HoldingWrite{Holding: &PortfolioHolding{ID: "h"}, ExpectedVersion: 6, Delete: true})

		hw, ok := cs.StagedHolding("h")
		require.True(t, ok)
		assert.True(t, hw.Delete)
		assert.False(t, hw.Create)
		assert.Equal(t, int64(5), hw.ExpectedVersion)
	})
}
