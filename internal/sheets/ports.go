// Package sheets mirrors the bet and trade tables into spreadsheet tabs.
package sheets

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"bankroll/internal/core"
)

// Ports for outbound adapters.
type (
	// TabWriter replaces the whole content of one tab.
	TabWriter interface {
		ReplaceTab(ctx context.Context, sheet string, rows [][]any) error
	}
)

var (
	BetHeader = []any{
		"ID", "Bet Date", "Team/Player", "Sportsbook", "Result",
		"Stake", "Odds", "Potential Payout", "Created At", "Updated At",
	}
	TradeHeader = []any{
		"ID", "Trade Date", "Symbol", "Company", "Type", "Quantity",
		"Buy Price", "Sell Price", "Buy Total", "Sell Total",
		"Profit/Loss", "Profit/Loss %", "Buy Time", "Sell Time", "Notes",
	}
)

const timestampLayout = "2006-01-02 15:04:05"

// BetRows renders the header and one row per bet, oldest id first.
func BetRows(bets []core.Bet) [][]any {
	ordered := append([]core.Bet(nil), bets...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	rows := make([][]any, 0, len(ordered)+1)
	rows = append(rows, BetHeader)
	for _, b := range ordered {
		rows = append(rows, []any{
			strconv.FormatInt(b.ID, 10),
			b.BetDate.String(),
			b.Pick,
			string(b.Sportsbook),
			string(b.Result),
			b.Stake.StringFixed(core.MoneyPlaces),
			b.Odds.String(),
			b.PotentialPayout.StringFixed(core.MoneyPlaces),
			b.CreatedAt.UTC().Format(timestampLayout),
			b.UpdatedAt.UTC().Format(timestampLayout),
		})
	}
	return rows
}

// TradeRows renders the header and one row per trade, oldest id first.
// Absent legs are empty cells.
func TradeRows(trades []core.Trade) [][]any {
	ordered := append([]core.Trade(nil), trades...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	rows := make([][]any, 0, len(ordered)+1)
	rows = append(rows, TradeHeader)
	for _, t := range ordered {
		pct := ""
		if t.ProfitLossPct.Valid {
			pct = t.ProfitLossPct.Decimal.StringFixed(2)
		}
		rows = append(rows, []any{
			strconv.FormatInt(t.ID, 10),
			t.TradeDate.String(),
			t.Symbol,
			t.CompanyName,
			string(t.Type),
			strconv.FormatInt(t.Quantity, 10),
			money(t.BuyPrice),
			money(t.SellPrice),
			money(t.BuyTotal),
			money(t.SellTotal),
			money(t.ProfitLoss),
			pct,
			t.BuyTime,
			t.SellTime,
			t.Notes,
		})
	}
	return rows
}

func money(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(core.MoneyPlaces)
}
