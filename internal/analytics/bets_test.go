package analytics

import (
	"math/rand"
	"testing"
	"time"

	"bankroll/internal/core"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestAggregator(seed int64) *BetAggregator {
	return &BetAggregator{
		Now:  func() time.Time { return fixedNow },
		Rand: rand.New(rand.NewSource(seed)),
	}
}

func bet(result core.BetResult, stake, odds string, daysAgo int) core.Bet {
	b := core.Bet{
		Pick:       "pick",
		Sportsbook: core.FanDuel,
		Result:     result,
		Stake:      dec(stake),
		Odds:       dec(odds),
		CreatedAt:  fixedNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
	b.BetDate = core.DateOf(b.CreatedAt)
	b.PotentialPayout = core.RoundMoney(b.Stake.Mul(b.Odds))
	return b
}

func TestAggregateBetsExample(t *testing.T) {
	bets := []core.Bet{
		bet(core.ResultLost, "20", "3", 2),
		bet(core.ResultWon, "50", "2.25", 3),
	}
	s, ok := newTestAggregator(1).Aggregate(bets)
	if !ok {
		t.Fatalf("expected data")
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"total won", s.TotalWon, 112.5},
		{"total lost", s.TotalLost, 20},
		{"net profit", s.NetProfit, 92.5},
		{"current bankroll", s.CurrentBankroll, 192.5},
		{"growth", s.GrowthPct, 92.5},
		{"total staked", s.TotalStaked, 70},
		{"win rate", s.WinRate, 50},
		{"average stake", s.AverageStake, 35},
		{"average odds", s.AverageOdds, 2.625},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if s.CompletedBets != 2 || s.WonBets != 1 || s.LostBets != 1 || s.PendingBets != 0 {
		t.Fatalf("unexpected counts %+v", s)
	}
}

func TestAggregateBetsEmptyIsNoData(t *testing.T) {
	if _, ok := newTestAggregator(1).Aggregate(nil); ok {
		t.Fatalf("expected no data for empty input")
	}
}

func TestGrowthSeriesTracksCompletedBets(t *testing.T) {
	bets := []core.Bet{
		bet(core.ResultWon, "50", "2.25", 10),
		bet(core.ResultPending, "10", "5", 9),
		bet(core.ResultLost, "20", "3", 8),
		bet(core.ResultWon, "10", "1.5", 7),
	}
	s, _ := newTestAggregator(1).Aggregate(bets)

	if s.Growth.Len() != s.CompletedBets {
		t.Fatalf("series length %d, completed %d", s.Growth.Len(), s.CompletedBets)
	}
	if len(s.Growth.Target) != s.Growth.Len() || len(s.Growth.Labels) != s.Growth.Len() {
		t.Fatalf("series lines are not aligned")
	}
	for _, v := range s.Growth.Target {
		if v != TargetGrowthPct {
			t.Fatalf("target point %v", v)
		}
	}
	want := []float64{62.5, 42.5, 47.5}
	for i, v := range want {
		if s.Growth.Actual[i] != v {
			t.Fatalf("point %d = %v, want %v (series %v)", i, s.Growth.Actual[i], v, s.Growth.Actual)
		}
	}
	if s.PendingStake != 10 || s.PendingMaxPayout != 50 {
		t.Fatalf("pending exposure %v / %v", s.PendingStake, s.PendingMaxPayout)
	}
}

func TestBankrollIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	results := []core.BetResult{core.ResultWon, core.ResultLost, core.ResultPending}
	for round := 0; round < 50; round++ {
		var bets []core.Bet
		won, lost, profit := decimal.Zero, decimal.Zero, decimal.Zero
		for i := 0; i < 1+rng.Intn(20); i++ {
			stake := decimal.NewFromInt(int64(1 + rng.Intn(100)))
			odds := decimal.NewFromFloat(1 + float64(rng.Intn(400))/100)
			b := bet(results[rng.Intn(3)], stake.String(), odds.String(), 30-i)
			switch b.Result {
			case core.ResultWon:
				won = won.Add(b.PotentialPayout)
				profit = profit.Add(b.Profit())
			case core.ResultLost:
				lost = lost.Add(b.Stake)
				profit = profit.Sub(b.Stake)
			}
			bets = append(bets, b)
		}
		s, _ := newTestAggregator(int64(round)).Aggregate(bets)
		want := decimal.NewFromFloat(StartingBankroll).Add(won).Sub(lost).InexactFloat64()
		if s.CurrentBankroll != want {
			t.Fatalf("round %d bankroll %v, want %v", round, s.CurrentBankroll, want)
		}
		if s.Growth.Len() > 0 && s.Growth.Last() != growthPct(profit) {
			t.Fatalf("round %d final series point %v != %v", round, s.Growth.Last(), growthPct(profit))
		}
	}
}

func TestCAGRWindow(t *testing.T) {
	tests := []struct {
		name       string
		daysAgo    int
		applicable bool
	}{
		{"same day", 0, false},
		{"six days", 6, false},
		{"seven days", 7, true},
		{"a month", 30, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestAggregator(1).Aggregate([]core.Bet{bet(core.ResultWon, "50", "2.25", tc.daysAgo)})
			if s.CAGRApplicable != tc.applicable {
				t.Fatalf("applicable = %v after %d days", s.CAGRApplicable, s.DaysInMarket)
			}
			if !tc.applicable && s.CAGR != 0 {
				t.Fatalf("CAGR should be unset, got %v", s.CAGR)
			}
			if s.DaysInMarket < 1 {
				t.Fatalf("days in market %d", s.DaysInMarket)
			}
		})
	}
}

func TestCAGRClamped(t *testing.T) {
	s, _ := newTestAggregator(1).Aggregate([]core.Bet{bet(core.ResultWon, "50", "2.25", 30)})
	if s.CAGR != cagrCeiling {
		t.Fatalf("expected clamp at %v, got %v", cagrCeiling, s.CAGR)
	}

	s, _ = newTestAggregator(1).Aggregate([]core.Bet{bet(core.ResultLost, "99.9", "2", 30)})
	if !s.CAGRApplicable || s.CAGR != cagrFloor {
		t.Fatalf("expected clamp at %v, got %v (applicable=%v)", cagrFloor, s.CAGR, s.CAGRApplicable)
	}

	s, _ = newTestAggregator(1).Aggregate([]core.Bet{bet(core.ResultLost, "100", "2", 30)})
	if s.CAGRApplicable {
		t.Fatalf("CAGR should not apply to an empty bankroll")
	}
}

func TestPendingOnlyHistory(t *testing.T) {
	s, ok := newTestAggregator(1).Aggregate([]core.Bet{bet(core.ResultPending, "10", "2", 1)})
	if !ok {
		t.Fatalf("pending-only history should still summarise")
	}
	if s.CompletedBets != 0 || s.WinRate != 0 || !s.Growth.Empty() {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.CurrentBankroll != StartingBankroll {
		t.Fatalf("bankroll moved without settled bets: %v", s.CurrentBankroll)
	}
	if s.Projection.Simulated || s.Projection.EstimatedBets != Unknown {
		t.Fatalf("no edge, projection should not run: %+v", s.Projection)
	}
}

func TestProjectionIsSeedDeterministic(t *testing.T) {
	bets := []core.Bet{
		bet(core.ResultWon, "10", "2.5", 20),
		bet(core.ResultWon, "10", "2.5", 15),
		bet(core.ResultLost, "10", "2.5", 10),
	}
	a, _ := newTestAggregator(99).Aggregate(bets)
	b, _ := newTestAggregator(99).Aggregate(bets)
	if a.Projection != b.Projection {
		t.Fatalf("same seed gave different projections:\n%+v\n%+v", a.Projection, b.Projection)
	}
	if !a.Projection.Simulated {
		t.Fatalf("positive edge should run the simulation")
	}
}
