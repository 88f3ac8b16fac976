package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// maxPickLength caps the team or player text, counted in characters.
const maxPickLength = 200

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the layout for trade leg times.
const TimeLayout = "15:04"

const (
	PrizePicks Sportsbook = "PrizePicks"
	DraftKings Sportsbook = "DraftKings"
	FanDuel    Sportsbook = "FanDuel"
	BetMGM     Sportsbook = "BetMGM"
	Caesars    Sportsbook = "Caesars"
	Bet365     Sportsbook = "Bet365"
	Fliff      Sportsbook = "Fliff"
	UnderDog   Sportsbook = "UnderDog"
)

const (
	ResultPending BetResult = "pending"
	ResultWon     BetResult = "won"
	ResultLost    BetResult = "lost"
)

const (
	DayTrade TradeType = "day_trade"
	BuyOnly  TradeType = "buy_only"
	SellOnly TradeType = "sell_only"
)

type (
	Sportsbook string
	BetResult  string
	TradeType  string

	Date struct {
		time.Time
	}

	Bet struct {
		ID              int64           `json:"id,omitempty"`
		Pick            string          `json:"team_or_player"`
		Sportsbook      Sportsbook      `json:"sportsbook"`
		Result          BetResult       `json:"result"`
		Stake           decimal.Decimal `json:"stake"`
		Odds            decimal.Decimal `json:"odds"`
		BetDate         Date            `json:"bet_date"`
		PotentialPayout decimal.Decimal `json:"potential_payout"`
		CreatedAt       time.Time       `json:"created_at,omitempty"`
		UpdatedAt       time.Time       `json:"updated_at,omitempty"`
	}

	Trade struct {
		ID            int64               `json:"id,omitempty"`
		Symbol        string              `json:"symbol"`
		CompanyName   string              `json:"company_name"`
		Type          TradeType           `json:"trade_type"`
		Quantity      int64               `json:"quantity"`
		BuyPrice      decimal.NullDecimal `json:"buy_price"`
		SellPrice     decimal.NullDecimal `json:"sell_price"`
		BuyTotal      decimal.NullDecimal `json:"buy_total"`
		SellTotal     decimal.NullDecimal `json:"sell_total"`
		ProfitLoss    decimal.NullDecimal `json:"profit_loss"`
		ProfitLossPct decimal.NullDecimal `json:"profit_loss_percentage"`
		TradeDate     Date                `json:"trade_date"`
		BuyTime       string              `json:"buy_time,omitempty"`
		SellTime      string              `json:"sell_time,omitempty"`
		Notes         string              `json:"notes"`
		CreatedAt     time.Time           `json:"created_at,omitempty"`
		UpdatedAt     time.Time           `json:"updated_at,omitempty"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidOdds       = errors.New("odds must be at least 1")
	ErrEmptyPick         = errors.New("empty team or player")
	ErrInvalidSportsbook = errors.New("invalid sportsbook")
	ErrInvalidResult     = errors.New("invalid bet result")
	ErrInvalidTradeType  = errors.New("invalid trade type")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrEmptySymbol       = errors.New("empty symbol")
	ErrMissingLeg        = errors.New("missing price for trade leg")
	ErrInvalidTime       = errors.New("invalid time, expected HH:MM")
	ErrNotFound          = errors.New("record not found")
)

// Sportsbooks lists the books offered in the bet form, in display order.
func Sportsbooks() []Sportsbook {
	return []Sportsbook{PrizePicks, DraftKings, FanDuel, BetMGM, Caesars, Bet365, Fliff, UnderDog}
}

func (s Sportsbook) IsValid() bool {
	for _, b := range Sportsbooks() {
		if b == s {
			return true
		}
	}
	return false
}

// BetResults lists every result in display order.
func BetResults() []BetResult {
	return []BetResult{ResultPending, ResultWon, ResultLost}
}

func (r BetResult) IsValid() bool {
	switch r {
	case ResultPending, ResultWon, ResultLost:
		return true
	default:
		return false
	}
}

// IsCompleted reports whether the bet has been settled.
func (r BetResult) IsCompleted() bool {
	return r == ResultWon || r == ResultLost
}

// TradeTypes lists every trade type in display order.
func TradeTypes() []TradeType {
	return []TradeType{DayTrade, BuyOnly, SellOnly}
}

func (t TradeType) IsValid() bool {
	switch t {
	case DayTrade, BuyOnly, SellOnly:
		return true
	default:
		return false
	}
}

// HasBuyLeg reports whether trades of this type carry buy price, total and time.
func (t TradeType) HasBuyLeg() bool { return t == DayTrade || t == BuyOnly }

// HasSellLeg reports whether trades of this type carry sell price, total and time.
func (t TradeType) HasSellLeg() bool { return t == DayTrade || t == SellOnly }

// Label returns the human readable form used in the UI.
func (t TradeType) Label() string {
	switch t {
	case DayTrade:
		return "Day Trade"
	case BuyOnly:
		return "Buy Only"
	case SellOnly:
		return "Sell Only"
	default:
		return string(t)
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps from stores that return DATE columns with a time part.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE and TEXT columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.UnmarshalJSON([]byte(v))
	case []byte:
		return d.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

// Profit is the amount won on top of the stake if the bet lands.
func (b Bet) Profit() decimal.Decimal {
	return b.PotentialPayout.Sub(b.Stake)
}

func (b Bet) Validate() error {
	if strings.TrimSpace(b.Pick) == "" {
		return ErrEmptyPick
	}
	if utf8.RuneCountInString(b.Pick) > maxPickLength {
		return errors.New("team or player too long (max 200 characters)")
	}
	if !b.Sportsbook.IsValid() {
		return ErrInvalidSportsbook
	}
	if !b.Result.IsValid() {
		return ErrInvalidResult
	}
	if b.Stake.IsNegative() {
		return ErrInvalidAmount
	}
	if b.Odds.LessThan(decimal.NewFromInt(1)) {
		return ErrInvalidOdds
	}
	return b.BetDate.Validate()
}

func (t Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return ErrEmptySymbol
	}
	if !t.Type.IsValid() {
		return ErrInvalidTradeType
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if t.Type.HasBuyLeg() && !positive(t.BuyPrice) {
		return fmt.Errorf("buy leg: %w", ErrMissingLeg)
	}
	if t.Type.HasSellLeg() && !positive(t.SellPrice) {
		return fmt.Errorf("sell leg: %w", ErrMissingLeg)
	}
	for _, v := range []string{t.BuyTime, t.SellTime} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(TimeLayout, v); err != nil {
			return ErrInvalidTime
		}
	}
	return t.TradeDate.Validate()
}

// Normalized returns a copy holding only the legs relevant to the trade type.
func (t Trade) Normalized() Trade {
	out := t
	out.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if !t.Type.HasBuyLeg() {
		out.BuyPrice = decimal.NullDecimal{}
		out.BuyTotal = decimal.NullDecimal{}
		out.BuyTime = ""
	}
	if !t.Type.HasSellLeg() {
		out.SellPrice = decimal.NullDecimal{}
		out.SellTotal = decimal.NullDecimal{}
		out.SellTime = ""
	}
	if t.Type != DayTrade {
		out.ProfitLoss = decimal.NullDecimal{}
		out.ProfitLossPct = decimal.NullDecimal{}
	}
	return out
}

// IsCompletedDayTrade reports whether the trade has both legs and a profit figure.
func (t Trade) IsCompletedDayTrade() bool {
	return t.Type == DayTrade && t.BuyTotal.Valid && t.SellTotal.Valid && t.ProfitLoss.Valid
}

func positive(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsPositive()
}
