package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankroll/internal/core"
	"bankroll/internal/history"
)

var parseNow = time.Date(2025, 9, 15, 9, 30, 0, 0, time.UTC)

func TestParseBetDraft(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantPayout string
		wantErr    bool
	}{
		{
			name:       "complete form",
			form:       url.Values{"team_or_player": {" Chiefs -3 "}, "sportsbook": {"DraftKings"}, "stake": {"50"}, "odds": {"2.25"}, "bet_date": {"2025-09-01"}},
			wantPayout: "112.5",
		},
		{
			name:       "comma decimal",
			form:       url.Values{"stake": {"10,5"}, "odds": {"2"}},
			wantPayout: "21",
		},
		{
			name:       "missing odds leaves payout at zero",
			form:       url.Values{"stake": {"10"}},
			wantPayout: "0",
		},
		{
			name:       "bad stake",
			form:       url.Values{"stake": {"ten"}, "odds": {"2"}},
			wantPayout: "0",
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseBetDraft(tt.form, core.NewBetDraft(parseNow))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !draft.PotentialPayout.Equal(decimal.RequireFromString(tt.wantPayout)) {
				t.Errorf("payout = %s, want %s", draft.PotentialPayout, tt.wantPayout)
			}
		})
	}
}

func TestParseBetDraftKeepsDefaults(t *testing.T) {
	draft, err := ParseBetDraft(url.Values{"team_or_player": {"Lakers"}}, core.NewBetDraft(parseNow))
	if err != nil {
		t.Fatal(err)
	}
	if draft.Result != core.ResultPending || draft.BetDate.String() != "2025-09-15" {
		t.Errorf("defaults lost: result=%q date=%s", draft.Result, draft.BetDate)
	}

	_, err = ParseBetDraft(url.Values{"bet_date": {"15/09/2025"}}, core.NewBetDraft(parseNow))
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "bet_date" {
		t.Errorf("bad date error = %v", err)
	}
}

func TestParseTradeDraft(t *testing.T) {
	form := url.Values{
		"symbol":     {"aapl"},
		"trade_type": {"day_trade"},
		"quantity":   {"10"},
		"buy_price":  {"100"},
		"sell_price": {"105"},
		"buy_time":   {"09:31"},
		"notes":      {"gap fill\x00"},
	}
	draft, err := ParseTradeDraft(form, core.NewTradeDraft(parseNow))
	if err != nil {
		t.Fatal(err)
	}
	if draft.Symbol != "AAPL" {
		t.Errorf("symbol = %q", draft.Symbol)
	}
	if !draft.ProfitLoss.Equal(decimal.NewFromInt(50)) || !draft.ProfitLossPct.Equal(decimal.NewFromInt(5)) {
		t.Errorf("profit = %s (%s%%)", draft.ProfitLoss, draft.ProfitLossPct)
	}
	if draft.SellTime != "09:30" {
		t.Errorf("sell time should keep the draft default, got %q", draft.SellTime)
	}
	if draft.Notes != "gap fill" {
		t.Errorf("notes = %q", draft.Notes)
	}

	_, err = ParseTradeDraft(url.Values{"quantity": {"1.5"}}, core.NewTradeDraft(parseNow))
	if !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("fractional quantity error = %v", err)
	}
}

func TestParseHistoryState(t *testing.T) {
	s := ParseHistoryState(url.Values{
		"filter":   {"won"},
		"q":        {" lakers "},
		"action":   {history.ActionMarkLost},
		"selected": {"3", "", "1"},
	})
	if s.Filter != "won" || s.Search != "lakers" || s.Action != history.ActionMarkLost {
		t.Errorf("state = %+v", s)
	}
	if ids := s.Selection.IDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("selection = %v", ids)
	}
}

func TestParseHistoryStateKeepsValidIDs(t *testing.T) {
	values := url.Values{"selected": {"3", "7", "abc"}}
	if ids := ParseHistoryState(values).Selection.IDs(); len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Errorf("selection = %v", ids)
	}
	if _, err := ParseSelectedIDs(values); err == nil || !strings.Contains(err.Error(), `"abc"`) {
		t.Errorf("ParseSelectedIDs error = %v", err)
	}
	ids, err := ParseSelectedIDs(url.Values{"selected": {"7", "3", "7"}})
	if err != nil || len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Errorf("ParseSelectedIDs = %v, %v", ids, err)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "x"})
	if err == nil {
		t.Error("non-numeric id should fail")
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("valid ids = %v", ids)
	}
	if _, err := parseIDs([]string{"-2"}); err == nil {
		t.Error("negative id should fail")
	}
	ids, err = parseIDs(nil)
	if err != nil || len(ids) != 0 {
		t.Errorf("parseIDs(nil) = %v, %v", ids, err)
	}
}

func TestPathID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/bets/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = pathID(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bets/42", nil))
	if gotErr != nil || got != 42 {
		t.Errorf("pathID = %d, %v", got, gotErr)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bets/abc", nil))
	if gotErr == nil {
		t.Error("non-numeric id should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x01b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput = %q", got)
	}
}
