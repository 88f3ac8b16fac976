// Package storage defines the persistence gateway used by the services and
// shared helpers for its implementations.
package storage

import (
	"context"

	"bankroll/internal/core"
)

// Ports for the persistence gateway. List operations return the full table
// ordered newest first.
type (
	BetStore interface {
		ListBets(ctx context.Context) ([]core.Bet, error)
		CreateBet(ctx context.Context, b core.Bet) (core.Bet, error)
		// UpdateBet replaces every editable field and refreshes updated_at.
		UpdateBet(ctx context.Context, b core.Bet) (core.Bet, error)
		// SetBetResults updates the result of all ids in one statement.
		SetBetResults(ctx context.Context, ids []int64, result core.BetResult) error
		DeleteBet(ctx context.Context, id int64) error
	}

	TradeStore interface {
		ListTrades(ctx context.Context) ([]core.Trade, error)
		CreateTrade(ctx context.Context, t core.Trade) (core.Trade, error)
		UpdateTrade(ctx context.Context, t core.Trade) (core.Trade, error)
		DeleteTrade(ctx context.Context, id int64) error
		// DeleteTrades removes all ids in one statement.
		DeleteTrades(ctx context.Context, ids []int64) error
	}

	// Gateway is the full persistence surface a backend provides.
	Gateway interface {
		BetStore
		TradeStore
		// Ping reports whether the backing store is reachable.
		Ping(ctx context.Context) error
	}
)
