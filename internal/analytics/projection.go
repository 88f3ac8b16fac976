package analytics

import (
	"math"
	"math/rand"
)

const (
	// GoalBankroll is the bankroll the projection tries to reach.
	GoalBankroll = 1000.0
	// WagerFraction is the share of the bankroll staked on each simulated bet.
	WagerFraction = 0.05
	// MaxSimulatedBets caps the projection loop.
	MaxSimulatedBets = 1000
)

// Unknown marks a projection figure that could not be estimated.
const Unknown = -1

// GoalProjection estimates how many bets and days it would take to grow the
// bankroll to the goal at the observed win rate and average odds.
type GoalProjection struct {
	Goal           float64 `json:"goal"`
	Achieved       bool    `json:"achieved"`
	ExpectedValue  float64 `json:"expected_value"`
	Simulated      bool    `json:"simulated"`
	Reached        bool    `json:"reached"`
	EstimatedBets  int     `json:"estimated_bets"`
	ProjectedDays  int     `json:"projected_days"`
	FinalBankroll  float64 `json:"final_bankroll"`
	BetsPerDay     float64 `json:"bets_per_day"`
	NextBetSize    float64 `json:"next_bet_size"`
	AmountToGoal   float64 `json:"amount_to_goal"`
	IterationsUsed int     `json:"iterations_used"`
}

// Viable reports whether the observed edge is positive.
func (p GoalProjection) Viable() bool { return p.ExpectedValue > 0 }

// projectionInput is what the simulation needs from the bet history.
type projectionInput struct {
	current   float64
	winProb   float64 // 0..1
	avgOdds   float64
	completed int
	days      int
}

// expectedValue is the expected return per unit staked at decimal odds.
func expectedValue(winProb, avgOdds float64) float64 {
	return winProb*avgOdds - (1 - winProb)
}

// projectGoal runs the bounded simulation. rng must not be nil.
func projectGoal(in projectionInput, rng *rand.Rand) GoalProjection {
	p := GoalProjection{
		Goal:          GoalBankroll,
		Achieved:      in.current >= GoalBankroll,
		ExpectedValue: expectedValue(in.winProb, in.avgOdds),
		EstimatedBets: Unknown,
		ProjectedDays: Unknown,
		FinalBankroll: in.current,
		NextBetSize:   math.Max(0, in.current*WagerFraction),
		AmountToGoal:  math.Max(0, GoalBankroll-in.current),
	}
	if in.days > 0 {
		p.BetsPerDay = float64(in.completed) / float64(in.days)
	}
	if p.Achieved || !p.Viable() || in.current <= 0 {
		return p
	}

	bankroll := in.current
	n := 0
	for bankroll < GoalBankroll && n < MaxSimulatedBets {
		wager := bankroll * WagerFraction
		if rng.Float64() < in.winProb {
			bankroll += wager * (in.avgOdds - 1)
		} else {
			bankroll -= wager
		}
		n++
		if bankroll <= 0 {
			break
		}
	}

	p.Simulated = true
	p.IterationsUsed = n
	p.FinalBankroll = bankroll
	p.Reached = bankroll >= GoalBankroll
	if p.Reached {
		p.EstimatedBets = n
		if p.BetsPerDay > 0 {
			p.ProjectedDays = int(math.Ceil(float64(n) / p.BetsPerDay))
		}
	}
	return p
}
