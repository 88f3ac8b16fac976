// Package storagetest holds the behaviour every storage.Gateway must share,
// run against each backend from its own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"bankroll/internal/core"
	"bankroll/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty gateway for one subtest.
type Factory func(t *testing.T) storage.Gateway

// NewBet builds a valid pending bet.
func NewBet(pick string, stake, odds string) core.Bet {
	b := core.Bet{
		Pick:       pick,
		Sportsbook: core.DraftKings,
		Result:     core.ResultPending,
		Stake:      decimal.RequireFromString(stake),
		Odds:       decimal.RequireFromString(odds),
		BetDate:    core.NewDate(2025, 9, 14),
	}
	b.PotentialPayout = core.RoundMoney(b.Stake.Mul(b.Odds))
	return b
}

// NewDayTrade builds a valid completed day trade of ten shares.
func NewDayTrade(symbol string, buy, sell string) core.Trade {
	d := core.TradeDraft{
		Symbol:    symbol,
		Type:      core.DayTrade,
		Quantity:  10,
		BuyPrice:  decimal.RequireFromString(buy),
		SellPrice: decimal.RequireFromString(sell),
		TradeDate: core.NewDate(2025, 9, 15),
		BuyTime:   "09:31",
		SellTime:  "15:02",
	}
	d.Recompute()
	return d.Trade()
}

// Run exercises the gateway contract.
func Run(t *testing.T, newGateway Factory) {
	t.Run("bets round trip", func(t *testing.T) { testBetRoundTrip(t, newGateway(t)) })
	t.Run("bets newest first", func(t *testing.T) { testBetOrdering(t, newGateway(t)) })
	t.Run("bet update", func(t *testing.T) { testBetUpdate(t, newGateway(t)) })
	t.Run("bet bulk result", func(t *testing.T) { testBetBulkResult(t, newGateway(t)) })
	t.Run("bet delete", func(t *testing.T) { testBetDelete(t, newGateway(t)) })
	t.Run("trades round trip", func(t *testing.T) { testTradeRoundTrip(t, newGateway(t)) })
	t.Run("trade update and delete", func(t *testing.T) { testTradeUpdateDelete(t, newGateway(t)) })
	t.Run("trade bulk delete", func(t *testing.T) { testTradeBulkDelete(t, newGateway(t)) })
}

func testBetRoundTrip(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	require.NoError(t, g.Ping(ctx))

	created, err := g.CreateBet(ctx, NewBet("Lakers ML", "50", "2.25"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	bets, err := g.ListBets(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 1)

	got := bets[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Lakers ML", got.Pick)
	assert.Equal(t, core.DraftKings, got.Sportsbook)
	assert.Equal(t, core.ResultPending, got.Result)
	assert.True(t, decimal.RequireFromString("50").Equal(got.Stake), "stake %s", got.Stake)
	assert.True(t, decimal.RequireFromString("2.25").Equal(got.Odds), "odds %s", got.Odds)
	assert.True(t, decimal.RequireFromString("112.5").Equal(got.PotentialPayout), "payout %s", got.PotentialPayout)
	assert.Equal(t, "2025-09-14", got.BetDate.String())
}

func testBetOrdering(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	for _, pick := range []string{"first", "second", "third"} {
		_, err := g.CreateBet(ctx, NewBet(pick, "10", "2"))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	bets, err := g.ListBets(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{bets[0].Pick, bets[1].Pick, bets[2].Pick})
}

func testBetUpdate(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	created, err := g.CreateBet(ctx, NewBet("Celtics -4.5", "20", "1.9"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	edit := created
	edit.Pick = "Celtics -3.5"
	edit.Stake = decimal.RequireFromString("30")
	edit.PotentialPayout = decimal.RequireFromString("57")
	edit.Result = core.ResultWon
	updated, err := g.UpdateBet(ctx, edit)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at not refreshed")

	bets, err := g.ListBets(ctx)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "Celtics -3.5", bets[0].Pick)
	assert.Equal(t, core.ResultWon, bets[0].Result)
	assert.True(t, decimal.RequireFromString("57").Equal(bets[0].PotentialPayout))

	missing := created
	missing.ID = created.ID + 1000
	_, err = g.UpdateBet(ctx, missing)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testBetBulkResult(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	var ids []int64
	for _, pick := range []string{"a", "b", "c"} {
		b, err := g.CreateBet(ctx, NewBet(pick, "10", "2"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	require.NoError(t, g.SetBetResults(ctx, ids[:2], core.ResultLost))
	require.NoError(t, g.SetBetResults(ctx, nil, core.ResultWon))

	bets, err := g.ListBets(ctx)
	require.NoError(t, err)
	results := map[string]core.BetResult{}
	for _, b := range bets {
		results[b.Pick] = b.Result
	}
	assert.Equal(t, map[string]core.BetResult{
		"a": core.ResultLost,
		"b": core.ResultLost,
		"c": core.ResultPending,
	}, results)
}

func testBetDelete(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	b, err := g.CreateBet(ctx, NewBet("delete me", "10", "2"))
	require.NoError(t, err)

	require.NoError(t, g.DeleteBet(ctx, b.ID))
	bets, err := g.ListBets(ctx)
	require.NoError(t, err)
	assert.Empty(t, bets)

	assert.ErrorIs(t, g.DeleteBet(ctx, b.ID), core.ErrNotFound)
}

func testTradeRoundTrip(t *testing.T, g storage.Gateway) {
	ctx := context.Background()

	day, err := g.CreateTrade(ctx, NewDayTrade("aapl", "100", "105"))
	require.NoError(t, err)
	assert.NotZero(t, day.ID)

	buy := core.TradeDraft{
		Symbol:    "msft",
		Type:      core.BuyOnly,
		Quantity:  5,
		BuyPrice:  decimal.RequireFromString("300"),
		TradeDate: core.NewDate(2025, 9, 15),
		BuyTime:   "10:00",
		SellTime:  "11:00",
	}
	buy.Recompute()
	_, err = g.CreateTrade(ctx, buy.Trade())
	require.NoError(t, err)

	trades, err := g.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	var got, gotBuy core.Trade
	for _, tr := range trades {
		switch tr.Symbol {
		case "AAPL":
			got = tr
		case "MSFT":
			gotBuy = tr
		}
	}
	assert.Equal(t, core.DayTrade, got.Type)
	assert.Equal(t, int64(10), got.Quantity)
	assert.True(t, decimal.RequireFromString("1000").Equal(got.BuyTotal.Decimal))
	assert.True(t, decimal.RequireFromString("1050").Equal(got.SellTotal.Decimal))
	assert.True(t, decimal.RequireFromString("50").Equal(got.ProfitLoss.Decimal))
	assert.True(t, decimal.RequireFromString("5").Equal(got.ProfitLossPct.Decimal), "pct %s", got.ProfitLossPct.Decimal)
	assert.Equal(t, "09:31", got.BuyTime)
	assert.Equal(t, "15:02", got.SellTime)
	assert.Equal(t, "2025-09-15", got.TradeDate.String())
	assert.True(t, got.IsCompletedDayTrade())

	assert.Equal(t, core.BuyOnly, gotBuy.Type)
	assert.True(t, decimal.RequireFromString("1500").Equal(gotBuy.BuyTotal.Decimal))
	assert.False(t, gotBuy.SellPrice.Valid)
	assert.False(t, gotBuy.SellTotal.Valid)
	assert.False(t, gotBuy.ProfitLoss.Valid)
	assert.Empty(t, gotBuy.SellTime)
}

func testTradeUpdateDelete(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	created, err := g.CreateTrade(ctx, NewDayTrade("NVDA", "120", "118"))
	require.NoError(t, err)

	edit := created
	edit.Notes = "faded the open"
	edit.CompanyName = "NVIDIA"
	_, err = g.UpdateTrade(ctx, edit)
	require.NoError(t, err)

	trades, err := g.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "faded the open", trades[0].Notes)
	assert.Equal(t, "NVIDIA", trades[0].CompanyName)

	require.NoError(t, g.DeleteTrade(ctx, created.ID))
	assert.ErrorIs(t, g.DeleteTrade(ctx, created.ID), core.ErrNotFound)

	missing := created
	missing.ID = created.ID + 1000
	_, err = g.UpdateTrade(ctx, missing)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testTradeBulkDelete(t *testing.T, g storage.Gateway) {
	ctx := context.Background()
	var ids []int64
	for _, sym := range []string{"AMD", "INTC", "QCOM"} {
		tr, err := g.CreateTrade(ctx, NewDayTrade(sym, "10", "11"))
		require.NoError(t, err)
		ids = append(ids, tr.ID)
	}

	require.NoError(t, g.DeleteTrades(ctx, []int64{ids[0], ids[2]}))
	require.NoError(t, g.DeleteTrades(ctx, nil))

	trades, err := g.ListTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "INTC", trades[0].Symbol)
}
