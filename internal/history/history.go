// Package history holds the list-view state of the bet and trade history
// tabs: status filter, free-text search, selection and the pending bulk
// action. Views are rebuilt from a fresh table snapshot on every request.
package history

import (
	"sort"
	"strings"

	"bankroll/internal/core"
)

// FilterAll shows every record.
const FilterAll = "all"

// BetFilters are the status filters of the bet history, in display order.
func BetFilters() []string {
	return []string{FilterAll, string(core.ResultPending), string(core.ResultWon), string(core.ResultLost)}
}

// TradeFilters are the type filters of the trade history, in display order.
func TradeFilters() []string {
	return []string{FilterAll, string(core.DayTrade), string(core.BuyOnly), string(core.SellOnly)}
}

// Bulk actions.
const (
	ActionNone     = ""
	ActionMarkWon  = "mark_won"
	ActionMarkLost = "mark_lost"
	ActionDelete   = "delete"
)

// BetAction maps a bet bulk action to the result it applies.
func BetAction(action string) (core.BetResult, bool) {
	switch action {
	case ActionMarkWon:
		return core.ResultWon, true
	case ActionMarkLost:
		return core.ResultLost, true
	default:
		return "", false
	}
}

// ValidTradeAction reports whether action is a trade bulk action.
func ValidTradeAction(action string) bool {
	return action == ActionDelete
}

// State is what the user has chosen in a history tab.
type State struct {
	Filter    string
	Search    string
	Action    string
	Selection Selection
}

// Normalize replaces an unknown filter with FilterAll.
func (s State) Normalize(filters []string) State {
	out := s
	out.Filter = FilterAll
	for _, f := range filters {
		if s.Filter == f {
			out.Filter = f
		}
	}
	out.Search = strings.TrimSpace(s.Search)
	if out.Selection == nil {
		out.Selection = Selection{}
	}
	return out
}

// Selection is the set of checked record ids.
type Selection map[int64]struct{}

// NewSelection builds a selection from ids.
func NewSelection(ids ...int64) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// ToggleAll selects every visible id, or clears the selection when they
// are all selected already.
func (s Selection) ToggleAll(visible []int64) Selection {
	if len(visible) > 0 && s.Covers(visible) {
		return Selection{}
	}
	return NewSelection(visible...)
}

// Covers reports whether every id in visible is selected.
func (s Selection) Covers(visible []int64) bool {
	for _, id := range visible {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// FilterBets keeps bets whose result matches filter and whose pick or
// sportsbook contains search, case-insensitively.
func FilterBets(bets []core.Bet, filter, search string) []core.Bet {
	out := make([]core.Bet, 0, len(bets))
	for _, b := range bets {
		if filter != FilterAll && filter != "" && string(b.Result) != filter {
			continue
		}
		if !matches(search, b.Pick, string(b.Sportsbook)) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FilterTrades keeps trades whose type matches filter and whose symbol or
// company name contains search, case-insensitively.
func FilterTrades(trades []core.Trade, filter, search string) []core.Trade {
	out := make([]core.Trade, 0, len(trades))
	for _, t := range trades {
		if filter != FilterAll && filter != "" && string(t.Type) != filter {
			continue
		}
		if !matches(search, t.Symbol, t.CompanyName) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BetCounts are the per-result totals shown above the bet table.
type BetCounts struct {
	Total, Pending, Won, Lost int
}

func CountBets(bets []core.Bet) BetCounts {
	c := BetCounts{Total: len(bets)}
	for _, b := range bets {
		switch b.Result {
		case core.ResultPending:
			c.Pending++
		case core.ResultWon:
			c.Won++
		case core.ResultLost:
			c.Lost++
		}
	}
	return c
}

// TradeCounts are the per-type totals shown above the trade table.
type TradeCounts struct {
	Total, DayTrades, BuyOnly, SellOnly int
}

func CountTrades(trades []core.Trade) TradeCounts {
	c := TradeCounts{Total: len(trades)}
	for _, t := range trades {
		switch t.Type {
		case core.DayTrade:
			c.DayTrades++
		case core.BuyOnly:
			c.BuyOnly++
		case core.SellOnly:
			c.SellOnly++
		}
	}
	return c
}

// BetView is everything the bet history template renders.
type BetView struct {
	State
	Result      core.Result[[]core.Bet]
	Visible     []core.Bet
	Counts      BetCounts
	AllSelected bool
}

// NewBetView applies state to a loaded (or failed) bet table.
func NewBetView(result core.Result[[]core.Bet], state State) BetView {
	v := BetView{State: state.Normalize(BetFilters()), Result: result}
	if !result.IsLoaded() {
		return v
	}
	v.Counts = CountBets(result.Data())
	v.Visible = FilterBets(result.Data(), v.Filter, v.Search)
	ids := make([]int64, len(v.Visible))
	for i, b := range v.Visible {
		ids[i] = b.ID
	}
	v.AllSelected = len(ids) > 0 && v.Selection.Covers(ids)
	return v
}

// VisibleIDs returns the ids of the bets on screen.
func (v BetView) VisibleIDs() []int64 {
	ids := make([]int64, len(v.Visible))
	for i, b := range v.Visible {
		ids[i] = b.ID
	}
	return ids
}

// TradeView is everything the trade history template renders.
type TradeView struct {
	State
	Result      core.Result[[]core.Trade]
	Visible     []core.Trade
	Counts      TradeCounts
	AllSelected bool
}

// NewTradeView applies state to a loaded (or failed) trade table.
func NewTradeView(result core.Result[[]core.Trade], state State) TradeView {
	v := TradeView{State: state.Normalize(TradeFilters()), Result: result}
	if !result.IsLoaded() {
		return v
	}
	v.Counts = CountTrades(result.Data())
	v.Visible = FilterTrades(result.Data(), v.Filter, v.Search)
	v.AllSelected = len(v.Visible) > 0 && v.Selection.Covers(v.VisibleIDs())
	return v
}

// VisibleIDs returns the ids of the trades on screen.
func (v TradeView) VisibleIDs() []int64 {
	ids := make([]int64, len(v.Visible))
	for i, t := range v.Visible {
		ids[i] = t.ID
	}
	return ids
}
