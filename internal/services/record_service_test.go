package services

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankroll/internal/amqp"
	"bankroll/internal/core"
	"bankroll/internal/log"
	"bankroll/internal/metrics"
	"bankroll/internal/storage"
	"bankroll/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.RecordChanged
	err    error
}

func (p *recordingPublisher) PublishRecordChanged(_ context.Context, msg amqp.RecordChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

// brokenGateway fails every call.
type brokenGateway struct {
	storage.Gateway
	err error
}

func (g brokenGateway) ListBets(context.Context) ([]core.Bet, error)     { return nil, g.err }
func (g brokenGateway) ListTrades(context.Context) ([]core.Trade, error) { return nil, g.err }
func (g brokenGateway) CreateBet(context.Context, core.Bet) (core.Bet, error) {
	return core.Bet{}, g.err
}
func (g brokenGateway) CreateTrade(context.Context, core.Trade) (core.Trade, error) {
	return core.Trade{}, g.err
}
func (g brokenGateway) SetBetResults(context.Context, []int64, core.BetResult) error { return g.err }
func (g brokenGateway) DeleteBet(context.Context, int64) error                        { return g.err }
func (g brokenGateway) DeleteTrade(context.Context, int64) error                      { return g.err }
func (g brokenGateway) DeleteTrades(context.Context, []int64) error                   { return g.err }

var fixedNow = time.Date(2025, 9, 15, 14, 30, 0, 0, time.UTC)

func newService(t *testing.T, gw storage.Gateway) (*RecordService, *recordingPublisher, *metrics.Metrics) {
	t.Helper()
	pub := &recordingPublisher{}
	m := metrics.New()
	svc := NewRecordService(gw, pub, m, log.New(log.Config{Output: io.Discard}))
	svc.Now = func() time.Time { return fixedNow }
	svc.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(1)) }
	return svc, pub, m
}

func betDraft(pick, stake, odds string) core.BetDraft {
	d := core.NewBetDraft(fixedNow)
	d.Pick = pick
	d.Sportsbook = core.DraftKings
	d.Stake = decimal.RequireFromString(stake)
	d.Odds = decimal.RequireFromString(odds)
	return d
}

func TestRecordService_CreateBet(t *testing.T) {
	ctx := context.Background()
	svc, pub, m := newService(t, memory.New())

	draft := betDraft("Chiefs -3", "50", "2.25")
	draft.PotentialPayout = decimal.NewFromInt(999)

	bet, err := svc.CreateBet(ctx, draft)
	require.NoError(t, err)
	assert.NotZero(t, bet.ID)
	assert.Equal(t, core.ResultPending, bet.Result)
	assert.True(t, bet.PotentialPayout.Equal(decimal.RequireFromString("112.5")), "payout recomputed from stake and odds")

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.KindBet, pub.events[0].Kind)
	assert.Equal(t, amqp.OpCreate, pub.events[0].Op)
	assert.Equal(t, []int64{bet.ID}, pub.events[0].IDs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordWrites.WithLabelValues("bet", "create", metrics.OutcomeSuccess)))
}

func TestRecordService_CreateBetValidation(t *testing.T) {
	svc, pub, _ := newService(t, memory.New())

	tests := []struct {
		name  string
		draft core.BetDraft
		want  error
	}{
		{"empty pick", betDraft("  ", "10", "2"), core.ErrEmptyPick},
		{"odds below one", betDraft("Lakers", "10", "0.5"), core.ErrInvalidOdds},
		{"unknown sportsbook", func() core.BetDraft {
			d := betDraft("Lakers", "10", "2")
			d.Sportsbook = "Bookie"
			return d
		}(), core.ErrInvalidSportsbook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBet(context.Background(), tt.draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want.Error(), UserMessage(err))
		})
	}
	assert.Empty(t, pub.events)
}

func TestRecordService_GatewayFailures(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection reset")
	svc, pub, m := newService(t, brokenGateway{err: cause})

	_, err := svc.CreateBet(ctx, betDraft("Lakers", "10", "2"))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, MsgAddBet, UserMessage(err))

	trade := core.NewTradeDraft(fixedNow)
	trade.Symbol = "AAPL"
	trade.Quantity = 10
	trade.BuyPrice = decimal.NewFromInt(100)
	trade.SellPrice = decimal.NewFromInt(105)
	_, err = svc.CreateTrade(ctx, trade)
	assert.Equal(t, MsgAddTrade, UserMessage(err))

	assert.Equal(t, MsgUpdateBets, UserMessage(svc.SetBetResults(ctx, []int64{1, 2}, core.ResultWon)))
	assert.Equal(t, MsgUpdateBet, UserMessage(svc.SetBetResult(ctx, 1, core.ResultLost)))
	assert.Equal(t, MsgDeleteBet, UserMessage(svc.DeleteBet(ctx, 1)))
	assert.Equal(t, MsgDeleteTrade, UserMessage(svc.DeleteTrade(ctx, 1)))
	assert.Equal(t, MsgDeleteTrades, UserMessage(svc.DeleteTrades(ctx, []int64{1})))

	bets := svc.FetchBets(ctx)
	assert.True(t, bets.IsFailed())
	assert.Equal(t, MsgLoadBets, bets.Reason())

	trades := svc.FetchTrades(ctx)
	assert.Equal(t, MsgLoadTrades, trades.Reason())

	assert.Equal(t, MsgLoadPerformance, svc.BetAnalytics(ctx).Reason())
	assert.Equal(t, MsgLoadPerformance, svc.TradeAnalytics(ctx).Reason())

	assert.Empty(t, pub.events, "nothing is published when the write failed")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("bet")))
}

func TestRecordService_BulkAndInlineUpdates(t *testing.T) {
	ctx := context.Background()
	svc, pub, _ := newService(t, memory.New())

	var ids []int64
	for _, pick := range []string{"A", "B", "C"} {
		b, err := svc.CreateBet(ctx, betDraft(pick, "10", "2"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	require.NoError(t, svc.SetBetResults(ctx, ids[:2], core.ResultWon))
	require.NoError(t, svc.SetBetResult(ctx, ids[2], core.ResultLost))
	require.NoError(t, svc.SetBetResults(ctx, nil, core.ResultWon), "empty selection is a no-op")

	bets, err := svc.ListBets(ctx)
	require.NoError(t, err)
	results := map[int64]core.BetResult{}
	for _, b := range bets {
		results[b.ID] = b.Result
	}
	assert.Equal(t, core.ResultWon, results[ids[0]])
	assert.Equal(t, core.ResultWon, results[ids[1]])
	assert.Equal(t, core.ResultLost, results[ids[2]])

	last := pub.events[len(pub.events)-2]
	assert.Equal(t, amqp.OpBulkUpdate, last.Op)
	assert.Equal(t, ids[:2], last.IDs)

	err = svc.SetBetResults(ctx, ids, "void")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordService_UpdateBetRecomputes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, memory.New())

	created, err := svc.CreateBet(ctx, betDraft("Celtics", "20", "1.5"))
	require.NoError(t, err)

	draft := core.BetDraftFrom(created)
	draft.Stake = decimal.NewFromInt(40)
	updated, err := svc.UpdateBet(ctx, draft)
	require.NoError(t, err)
	assert.True(t, updated.PotentialPayout.Equal(decimal.NewFromInt(60)))

	draft.ID = 999
	_, err = svc.UpdateBet(ctx, draft)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, MsgUpdateBet, UserMessage(err))

	_, err = svc.UpdateBet(ctx, betDraft("No id", "1", "1"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordService_Trades(t *testing.T) {
	ctx := context.Background()
	svc, pub, _ := newService(t, memory.New())

	draft := core.NewTradeDraft(fixedNow)
	draft.Symbol = " nvda "
	draft.CompanyName = "NVIDIA"
	draft.Quantity = 10
	draft.BuyPrice = decimal.NewFromInt(100)
	draft.SellPrice = decimal.NewFromInt(105)

	trade, err := svc.CreateTrade(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", trade.Symbol)
	assert.True(t, trade.ProfitLoss.Decimal.Equal(decimal.NewFromInt(50)))
	assert.True(t, trade.ProfitLossPct.Decimal.Equal(decimal.NewFromInt(5)))

	edit := core.TradeDraftFrom(trade)
	edit.Type = core.BuyOnly
	updated, err := svc.UpdateTrade(ctx, edit)
	require.NoError(t, err)
	assert.False(t, updated.SellTotal.Valid, "buy-only trade drops the sell leg")
	assert.False(t, updated.ProfitLoss.Valid)

	second, err := svc.CreateTrade(ctx, draft)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTrades(ctx, []int64{trade.ID, second.ID}))

	trades, err := svc.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Equal(t, amqp.OpBulkDelete, pub.events[len(pub.events)-1].Op)

	missing := core.NewTradeDraft(fixedNow)
	missing.Symbol = "AAPL"
	missing.Quantity = 1
	_, err = svc.CreateTrade(ctx, missing)
	assert.ErrorIs(t, err, core.ErrMissingLeg)
}

func TestRecordService_Analytics(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, memory.NewWithClock(func() time.Time { return fixedNow }))

	empty := svc.BetAnalytics(ctx)
	require.True(t, empty.IsLoaded())
	assert.False(t, empty.Data().HasData)

	won, err := svc.CreateBet(ctx, betDraft("Won", "50", "2.25"))
	require.NoError(t, err)
	lost, err := svc.CreateBet(ctx, betDraft("Lost", "20", "3"))
	require.NoError(t, err)
	require.NoError(t, svc.SetBetResult(ctx, won.ID, core.ResultWon))
	require.NoError(t, svc.SetBetResult(ctx, lost.ID, core.ResultLost))

	report := svc.BetAnalytics(ctx)
	require.True(t, report.IsLoaded())
	require.True(t, report.Data().HasData)
	assert.InDelta(t, 192.5, report.Data().Summary.CurrentBankroll, 1e-9)
	assert.InDelta(t, 92.5, report.Data().Summary.GrowthPct, 1e-9)

	trades := svc.TradeAnalytics(ctx)
	require.True(t, trades.IsLoaded())
	assert.False(t, trades.Data().HasData)
}

func TestRecordService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub, m := newService(t, memory.New())
	pub.err = amqp.ErrCircuitOpen

	_, err := svc.CreateBet(context.Background(), betDraft("Lakers", "10", "2"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(metrics.OutcomeError)))
}

func TestRecordService_NilPublisher(t *testing.T) {
	svc := NewRecordService(memory.New(), nil, nil, log.New(log.Config{Output: io.Discard}))
	_, err := svc.CreateBet(context.Background(), betDraft("Lakers", "10", "2"))
	require.NoError(t, err)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "empty symbol", UserMessage(invalid(core.ErrEmptySymbol)))
	assert.Equal(t, MsgDeleteBet, UserMessage(&UserError{Message: MsgDeleteBet, Err: errors.New("x")}))
	assert.Equal(t, "Something went wrong. Please try again.", UserMessage(errors.New("x")))
}

func TestRecordService_Find(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, memory.New())

	bet, err := svc.CreateBet(ctx, betDraft("Lakers", "10", "2"))
	require.NoError(t, err)

	found, err := svc.FindBet(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lakers", found.Pick)

	_, err = svc.FindBet(ctx, bet.ID+100)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.FindTrade(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)

	broken, _, _ := newService(t, brokenGateway{err: errors.New("down")})
	_, err = broken.FindTrade(ctx, 1)
	assert.Equal(t, MsgLoadTrades, UserMessage(err))
}
