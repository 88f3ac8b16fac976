package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BetDraft is the editable form state for a single bet.
type BetDraft struct {
	ID              int64
	Pick            string
	Sportsbook      Sportsbook
	Result          BetResult
	Stake           decimal.Decimal
	Odds            decimal.Decimal
	BetDate         Date
	PotentialPayout decimal.Decimal
}

// NewBetDraft returns the reset state of the bet form: dated today and pending.
func NewBetDraft(now time.Time) BetDraft {
	return BetDraft{
		Result:  ResultPending,
		BetDate: DateOf(now),
	}
}

// BetDraftFrom opens an existing bet for editing.
func BetDraftFrom(b Bet) BetDraft {
	d := BetDraft{
		ID:              b.ID,
		Pick:            b.Pick,
		Sportsbook:      b.Sportsbook,
		Result:          b.Result,
		Stake:           b.Stake,
		Odds:            b.Odds,
		BetDate:         b.BetDate,
		PotentialPayout: b.PotentialPayout,
	}
	d.Recompute()
	return d
}

// Recompute derives the potential payout from stake and odds.
func (d *BetDraft) Recompute() {
	if d.Stake.IsPositive() && d.Odds.IsPositive() {
		d.PotentialPayout = RoundMoney(d.Stake.Mul(d.Odds))
		return
	}
	d.PotentialPayout = decimal.Zero
}

// PotentialProfit is the payout net of the stake.
func (d BetDraft) PotentialProfit() decimal.Decimal {
	return d.PotentialPayout.Sub(d.Stake)
}

// Bet converts the draft into a record ready to be validated and stored.
func (d BetDraft) Bet() Bet {
	return Bet{
		ID:              d.ID,
		Pick:            d.Pick,
		Sportsbook:      d.Sportsbook,
		Result:          d.Result,
		Stake:           d.Stake,
		Odds:            d.Odds,
		BetDate:         d.BetDate,
		PotentialPayout: d.PotentialPayout,
	}
}

// TradeDraft is the editable form state for a single trade.
type TradeDraft struct {
	ID            int64
	Symbol        string
	CompanyName   string
	Type          TradeType
	Quantity      int64
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	BuyTotal      decimal.Decimal
	SellTotal     decimal.Decimal
	ProfitLoss    decimal.Decimal
	ProfitLossPct decimal.Decimal
	TradeDate     Date
	BuyTime       string
	SellTime      string
	Notes         string
}

// NewTradeDraft returns the reset state of the trade form: a day trade dated
// today with both leg times set to the current minute.
func NewTradeDraft(now time.Time) TradeDraft {
	hm := now.Format(TimeLayout)
	return TradeDraft{
		Type:      DayTrade,
		TradeDate: DateOf(now),
		BuyTime:   hm,
		SellTime:  hm,
	}
}

// TradeDraftFrom opens an existing trade for editing.
func TradeDraftFrom(t Trade) TradeDraft {
	d := TradeDraft{
		ID:          t.ID,
		Symbol:      t.Symbol,
		CompanyName: t.CompanyName,
		Type:        t.Type,
		Quantity:    t.Quantity,
		BuyPrice:    t.BuyPrice.Decimal,
		SellPrice:   t.SellPrice.Decimal,
		TradeDate:   t.TradeDate,
		BuyTime:     t.BuyTime,
		SellTime:    t.SellTime,
		Notes:       t.Notes,
	}
	d.Recompute()
	return d
}

// Recompute derives totals and profit from quantity and prices.
// Nothing is derived until the quantity is positive.
func (d *TradeDraft) Recompute() {
	d.BuyTotal = decimal.Zero
	d.SellTotal = decimal.Zero
	d.ProfitLoss = decimal.Zero
	d.ProfitLossPct = decimal.Zero
	if d.Quantity <= 0 {
		return
	}
	qty := decimal.NewFromInt(d.Quantity)
	switch d.Type {
	case DayTrade:
		if d.BuyPrice.IsPositive() && d.SellPrice.IsPositive() {
			d.BuyTotal = RoundMoney(qty.Mul(d.BuyPrice))
			d.SellTotal = RoundMoney(qty.Mul(d.SellPrice))
			d.ProfitLoss = d.SellTotal.Sub(d.BuyTotal)
			if !d.BuyTotal.IsZero() {
				d.ProfitLossPct = d.ProfitLoss.Div(d.BuyTotal).Mul(hundred).Round(4)
			}
		}
	case BuyOnly:
		if d.BuyPrice.IsPositive() {
			d.BuyTotal = RoundMoney(qty.Mul(d.BuyPrice))
		}
	case SellOnly:
		if d.SellPrice.IsPositive() {
			d.SellTotal = RoundMoney(qty.Mul(d.SellPrice))
		}
	}
}

// Trade converts the draft into a record holding only the legs relevant to
// its type.
func (d TradeDraft) Trade() Trade {
	t := Trade{
		ID:          d.ID,
		Symbol:      d.Symbol,
		CompanyName: d.CompanyName,
		Type:        d.Type,
		Quantity:    d.Quantity,
		TradeDate:   d.TradeDate,
		Notes:       d.Notes,
	}
	if d.Type.HasBuyLeg() {
		t.BuyPrice = NullMoney(d.BuyPrice)
		t.BuyTotal = NullMoney(d.BuyTotal)
		t.BuyTime = d.BuyTime
	}
	if d.Type.HasSellLeg() {
		t.SellPrice = NullMoney(d.SellPrice)
		t.SellTotal = NullMoney(d.SellTotal)
		t.SellTime = d.SellTime
	}
	if d.Type == DayTrade {
		t.ProfitLoss = NullMoney(d.ProfitLoss)
		t.ProfitLossPct = NullMoney(d.ProfitLossPct)
	}
	return t.Normalized()
}
