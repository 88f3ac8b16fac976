package history

import (
	"reflect"
	"testing"

	"bankroll/internal/core"
)

func sampleBets() []core.Bet {
	return []core.Bet{
		{ID: 4, Pick: "Lakers ML", Sportsbook: core.FanDuel, Result: core.ResultPending},
		{ID: 3, Pick: "Chiefs -3", Sportsbook: core.DraftKings, Result: core.ResultWon},
		{ID: 2, Pick: "LeBron over 25.5", Sportsbook: core.PrizePicks, Result: core.ResultLost},
		{ID: 1, Pick: "Yankees", Sportsbook: core.FanDuel, Result: core.ResultWon},
	}
}

func sampleTrades() []core.Trade {
	return []core.Trade{
		{ID: 3, Symbol: "AAPL", CompanyName: "Apple Inc.", Type: core.DayTrade},
		{ID: 2, Symbol: "MSFT", CompanyName: "Microsoft", Type: core.BuyOnly},
		{ID: 1, Symbol: "NVDA", CompanyName: "NVIDIA", Type: core.SellOnly},
	}
}

func betIDs(bets []core.Bet) []int64 {
	ids := make([]int64, len(bets))
	for i, b := range bets {
		ids[i] = b.ID
	}
	return ids
}

func TestFilterBets(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		search string
		want   []int64
	}{
		{"all", FilterAll, "", []int64{4, 3, 2, 1}},
		{"empty filter means all", "", "", []int64{4, 3, 2, 1}},
		{"won", "won", "", []int64{3, 1}},
		{"pending", "pending", "", []int64{4}},
		{"search pick case-insensitive", FilterAll, "lebron", []int64{2}},
		{"search sportsbook", FilterAll, "fanduel", []int64{4, 1}},
		{"filter and search", "won", "FANDUEL", []int64{1}},
		{"no match", "lost", "yankees", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := betIDs(FilterBets(sampleBets(), tt.filter, tt.search))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterBets(%q, %q) = %v, want %v", tt.filter, tt.search, got, tt.want)
			}
		})
	}
}

func TestFilterTrades(t *testing.T) {
	tests := []struct {
		filter string
		search string
		want   int
	}{
		{FilterAll, "", 3},
		{"day_trade", "", 1},
		{FilterAll, "micro", 1},
		{FilterAll, "nvda", 1},
		{"buy_only", "apple", 0},
	}
	for _, tt := range tests {
		if got := FilterTrades(sampleTrades(), tt.filter, tt.search); len(got) != tt.want {
			t.Errorf("FilterTrades(%q, %q) returned %d trades, want %d", tt.filter, tt.search, len(got), tt.want)
		}
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection(1, 1)
	if !reflect.DeepEqual(s.IDs(), []int64{1}) || !s.Has(1) || s.Has(3) {
		t.Fatalf("IDs() = %v, want [1]", s.IDs())
	}

	visible := []int64{4, 3, 1}
	all := s.ToggleAll(visible)
	if !reflect.DeepEqual(all.IDs(), []int64{1, 3, 4}) {
		t.Fatalf("ToggleAll from partial = %v, want every visible id", all.IDs())
	}
	none := all.ToggleAll(visible)
	if len(none) != 0 {
		t.Fatalf("ToggleAll from full = %v, want empty", none.IDs())
	}
	if got := NewSelection().ToggleAll(nil); len(got) != 0 {
		t.Fatalf("ToggleAll with nothing visible = %v", got.IDs())
	}
}

func TestBetAction(t *testing.T) {
	if r, ok := BetAction(ActionMarkWon); !ok || r != core.ResultWon {
		t.Errorf("mark_won = %v, %v", r, ok)
	}
	if r, ok := BetAction(ActionMarkLost); !ok || r != core.ResultLost {
		t.Errorf("mark_lost = %v, %v", r, ok)
	}
	if _, ok := BetAction(ActionDelete); ok {
		t.Error("delete is not a bet bulk action")
	}
	if !ValidTradeAction(ActionDelete) || ValidTradeAction(ActionMarkWon) {
		t.Error("only delete is a trade bulk action")
	}
}

func TestNewBetView(t *testing.T) {
	state := State{Filter: "won", Search: "  ", Selection: NewSelection(3, 1)}
	v := NewBetView(core.Loaded(sampleBets()), state)

	if v.Counts != (BetCounts{Total: 4, Pending: 1, Won: 2, Lost: 1}) {
		t.Errorf("Counts = %+v", v.Counts)
	}
	if !reflect.DeepEqual(v.VisibleIDs(), []int64{3, 1}) {
		t.Errorf("Visible = %v", v.VisibleIDs())
	}
	if !v.AllSelected {
		t.Error("every visible bet is selected")
	}
	if v.Search != "" {
		t.Errorf("search should be trimmed, got %q", v.Search)
	}

	unknown := NewBetView(core.Loaded(sampleBets()), State{Filter: "void"})
	if unknown.Filter != FilterAll || len(unknown.Visible) != 4 || unknown.AllSelected {
		t.Errorf("unknown filter view = %+v", unknown)
	}

	failed := NewBetView(core.Failed[[]core.Bet]("Failed to load bet data"), State{})
	if !failed.Result.IsFailed() || failed.Visible != nil {
		t.Errorf("failed view = %+v", failed)
	}
}

func TestNewTradeView(t *testing.T) {
	v := NewTradeView(core.Loaded(sampleTrades()), State{Filter: "sell_only"})
	if v.Counts != (TradeCounts{Total: 3, DayTrades: 1, BuyOnly: 1, SellOnly: 1}) {
		t.Errorf("Counts = %+v", v.Counts)
	}
	if len(v.Visible) != 1 || v.Visible[0].Symbol != "NVDA" {
		t.Errorf("Visible = %+v", v.Visible)
	}
	if v.AllSelected {
		t.Error("nothing is selected")
	}
}
