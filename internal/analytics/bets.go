package analytics

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"bankroll/internal/core"

	"github.com/shopspring/decimal"
)

const (
	// StartingBankroll is the fixed bankroll every bet history starts from.
	StartingBankroll = 100.0
	// TargetGrowthPct is the reference line drawn next to cumulative growth.
	TargetGrowthPct = 5.0

	minDaysForCAGR = 7
	cagrFloor      = -99.0
	cagrCeiling    = 10000.0
	daysPerYear    = 365.25
)

// BetSummary is the aggregate view of a bet history.
type BetSummary struct {
	TotalBets     int `json:"total_bets"`
	CompletedBets int `json:"completed_bets"`
	PendingBets   int `json:"pending_bets"`
	WonBets       int `json:"won_bets"`
	LostBets      int `json:"lost_bets"`

	TotalStaked      float64 `json:"total_staked"`
	TotalWon         float64 `json:"total_won"`
	TotalLost        float64 `json:"total_lost"`
	NetProfit        float64 `json:"net_profit"`
	PendingStake     float64 `json:"pending_stake"`
	PendingMaxPayout float64 `json:"pending_max_payout"`

	StartingBankroll float64 `json:"starting_bankroll"`
	CurrentBankroll  float64 `json:"current_bankroll"`
	GrowthPct        float64 `json:"growth_pct"`
	WinRate          float64 `json:"win_rate"`
	AverageStake     float64 `json:"average_stake"`
	AverageOdds      float64 `json:"average_odds"`

	DaysInMarket   int     `json:"days_in_market"`
	CAGR           float64 `json:"cagr"`
	CAGRApplicable bool    `json:"cagr_applicable"`

	Growth     Series         `json:"growth"`
	Projection GoalProjection `json:"projection"`
}

// BetAggregator computes BetSummary values. Now and Rand are injectable so
// the time window and the goal simulation are reproducible in tests.
type BetAggregator struct {
	Now  func() time.Time
	Rand *rand.Rand
}

// NewBetAggregator returns an aggregator using the wall clock and the given
// random source. A nil rng is replaced by a time-seeded one.
func NewBetAggregator(rng *rand.Rand) *BetAggregator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &BetAggregator{Now: time.Now, Rand: rng}
}

// Aggregate summarises the bets. It reports false when there are no bets at
// all; a history with only pending bets still produces a summary.
func (a *BetAggregator) Aggregate(bets []core.Bet) (BetSummary, bool) {
	if len(bets) == 0 {
		return BetSummary{}, false
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	ordered := make([]core.Bet, len(bets))
	copy(ordered, bets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	s := BetSummary{
		TotalBets:        len(ordered),
		StartingBankroll: StartingBankroll,
	}

	var won, lost, pendingStake, pendingPayout decimal.Decimal
	var completedStakes, completedOdds []float64
	for _, b := range ordered {
		switch b.Result {
		case core.ResultWon:
			s.WonBets++
			won = won.Add(b.PotentialPayout)
		case core.ResultLost:
			s.LostBets++
			lost = lost.Add(b.Stake)
		default:
			s.PendingBets++
			pendingStake = pendingStake.Add(b.Stake)
			pendingPayout = pendingPayout.Add(b.PotentialPayout)
			continue
		}
		completedStakes = append(completedStakes, b.Stake.InexactFloat64())
		completedOdds = append(completedOdds, b.Odds.InexactFloat64())
	}
	s.CompletedBets = s.WonBets + s.LostBets
	s.TotalStaked = sum(completedStakes)
	s.AverageStake = mean(completedStakes)
	s.AverageOdds = mean(completedOdds)
	s.TotalWon = won.InexactFloat64()
	s.TotalLost = lost.InexactFloat64()
	s.PendingStake = pendingStake.InexactFloat64()
	s.PendingMaxPayout = pendingPayout.InexactFloat64()

	net := won.Sub(lost)
	s.NetProfit = net.InexactFloat64()
	s.CurrentBankroll = decimal.NewFromFloat(StartingBankroll).Add(net).InexactFloat64()
	s.GrowthPct = growthPct(net)
	s.WinRate = percent(float64(s.WonBets), float64(s.CompletedBets))

	s.DaysInMarket = daysBetween(ordered[0].CreatedAt, now())
	if s.DaysInMarket >= minDaysForCAGR && s.CurrentBankroll > 0 {
		ratio := s.CurrentBankroll / StartingBankroll
		cagr := (math.Pow(ratio, daysPerYear/float64(s.DaysInMarket)) - 1) * 100
		s.CAGR = clamp(cagr, cagrFloor, cagrCeiling)
		s.CAGRApplicable = true
	}

	s.Growth = betGrowthSeries(ordered)

	rng := a.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}
	s.Projection = projectGoal(projectionInput{
		current:   s.CurrentBankroll,
		winProb:   s.WinRate / 100,
		avgOdds:   s.AverageOdds,
		completed: s.CompletedBets,
		days:      s.DaysInMarket,
	}, rng)

	return s, true
}

// settledProfit is the signed profit of a settled bet: payout minus stake
// for a win, the lost stake for a loss.
func settledProfit(b core.Bet) decimal.Decimal {
	switch b.Result {
	case core.ResultWon:
		return b.Profit()
	case core.ResultLost:
		return b.Stake.Neg()
	default:
		return decimal.Zero
	}
}

// growthPct expresses a bankroll movement as a percentage of the starting
// bankroll.
func growthPct(net decimal.Decimal) float64 {
	return net.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromFloat(StartingBankroll)).InexactFloat64()
}

// betGrowthSeries expects bets in ascending creation order and emits one
// point per settled bet.
func betGrowthSeries(ordered []core.Bet) Series {
	var s Series
	cumulative := decimal.Zero
	for _, b := range ordered {
		if !b.Result.IsCompleted() {
			continue
		}
		cumulative = cumulative.Add(settledProfit(b))
		label := b.BetDate.String()
		if label == "" {
			label = b.CreatedAt.Format(core.DateLayout)
		}
		s.add(label, growthPct(cumulative), TargetGrowthPct)
	}
	return s
}
