// Package http provides HTTP server and handler implementations.
//
// This file turns submitted forms into record drafts and history state. Drafts
// are parsed leniently so a half-filled form can still be recomputed; the
// service validates them before anything is written.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankroll/internal/core"
	"bankroll/internal/history"
)

// FieldError names the form field that could not be parsed.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// sanitizeInput removes control characters except tab and newlines, and trims
// whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func formString(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

func formAmount(form url.Values, key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(form.Get(key))
	if err != nil {
		return decimal.Zero, &FieldError{Field: key, Err: err}
	}
	return d, nil
}

func formDate(form url.Values, key string, fallback core.Date) (core.Date, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return fallback, &FieldError{Field: key, Err: err}
	}
	return d, nil
}

// ParseBetDraft reads the bet form into draft, keeping draft's values for
// fields the form omits. The payout is recomputed.
func ParseBetDraft(form url.Values, draft core.BetDraft) (core.BetDraft, error) {
	var errs []error
	if _, ok := form["team_or_player"]; ok {
		draft.Pick = formString(form, "team_or_player")
	}
	if v := formString(form, "sportsbook"); v != "" {
		draft.Sportsbook = core.Sportsbook(v)
	}
	if v := formString(form, "result"); v != "" {
		draft.Result = core.BetResult(v)
	}
	if stake, err := formAmount(form, "stake"); err != nil {
		errs = append(errs, err)
	} else {
		draft.Stake = stake
	}
	if odds, err := formAmount(form, "odds"); err != nil {
		errs = append(errs, err)
	} else {
		draft.Odds = odds
	}
	date, err := formDate(form, "bet_date", draft.BetDate)
	if err != nil {
		errs = append(errs, err)
	}
	draft.BetDate = date

	draft.Recompute()
	return draft, errors.Join(errs...)
}

// ParseTradeDraft reads the trade form into draft and recomputes its totals.
func ParseTradeDraft(form url.Values, draft core.TradeDraft) (core.TradeDraft, error) {
	var errs []error
	if _, ok := form["symbol"]; ok {
		draft.Symbol = strings.ToUpper(formString(form, "symbol"))
	}
	if _, ok := form["company_name"]; ok {
		draft.CompanyName = formString(form, "company_name")
	}
	if v := formString(form, "trade_type"); v != "" {
		draft.Type = core.TradeType(v)
	}
	if v := strings.TrimSpace(form.Get("quantity")); v != "" {
		q, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, &FieldError{Field: "quantity", Err: core.ErrInvalidQuantity})
		} else {
			draft.Quantity = q
		}
	} else if _, ok := form["quantity"]; ok {
		draft.Quantity = 0
	}
	if p, err := formAmount(form, "buy_price"); err != nil {
		errs = append(errs, err)
	} else {
		draft.BuyPrice = p
	}
	if p, err := formAmount(form, "sell_price"); err != nil {
		errs = append(errs, err)
	} else {
		draft.SellPrice = p
	}
	date, err := formDate(form, "trade_date", draft.TradeDate)
	if err != nil {
		errs = append(errs, err)
	}
	draft.TradeDate = date
	if _, ok := form["buy_time"]; ok {
		draft.BuyTime = formString(form, "buy_time")
	}
	if _, ok := form["sell_time"]; ok {
		draft.SellTime = formString(form, "sell_time")
	}
	if _, ok := form["notes"]; ok {
		draft.Notes = formString(form, "notes")
	}

	draft.Recompute()
	return draft, errors.Join(errs...)
}

// ParseHistoryState reads filter, search, selection and pending action from
// a history form or query string. Malformed ids are dropped one by one so the
// rest of the selection survives; handlers acting on the selection check it
// with ParseSelectedIDs.
func ParseHistoryState(values url.Values) history.State {
	ids, _ := parseIDs(values["selected"])
	return history.State{
		Filter:    formString(values, "filter"),
		Search:    formString(values, "q"),
		Action:    formString(values, "action"),
		Selection: history.NewSelection(ids...),
	}
}

// ParseSelectedIDs returns the selected record ids, failing when any value is
// not a positive integer.
func ParseSelectedIDs(values url.Values) ([]int64, error) {
	ids, err := parseIDs(values["selected"])
	if err != nil {
		return nil, err
	}
	return history.NewSelection(ids...).IDs(), nil
}

// parseIDs converts checkbox values into record ids, skipping blanks. Invalid
// values are left out and reported together.
func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	var errs []error
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			errs = append(errs, fmt.Errorf("invalid record id %q", v))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}

// pathID reads the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return id, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
