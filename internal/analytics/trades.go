package analytics

import (
	"math"
	"sort"
	"time"

	"bankroll/internal/core"

	"github.com/shopspring/decimal"
)

const (
	// TradingDaysPerYear is used to annualise the average per-trade return.
	TradingDaysPerYear = 252
	// DailyPosition is the notional position compounded in the yearly projection.
	DailyPosition = 1500.0
	// AnnualTargetROI is the ceiling of the ramped trade target line.
	AnnualTargetROI = 5.0
	// TargetRampDays is how many days the target line takes to reach its ceiling.
	TargetRampDays = 250
)

// TradePerformance is the outcome of one completed day trade.
type TradePerformance struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	TradeDate core.Date `json:"trade_date"`
	Profit    float64   `json:"profit"`
	Pct       float64   `json:"percentage"`
	BuyValue  float64   `json:"buy_value"`
	SellValue float64   `json:"sell_value"`
}

// TradeSummary is the aggregate view of a trade history.
type TradeSummary struct {
	TotalRecords int `json:"total_records"`
	DayTrades    int `json:"day_trades"`
	BuyOnly      int `json:"buy_only"`
	SellOnly     int `json:"sell_only"`

	TotalTrades     int     `json:"total_trades"`
	TotalBuyValue   float64 `json:"total_buy_value"`
	TotalSellValue  float64 `json:"total_sell_value"`
	NetProfit       float64 `json:"net_profit"`
	ROIPct          float64 `json:"roi_pct"`
	WinRate         float64 `json:"win_rate"`
	AverageProfit   float64 `json:"average_profit"`
	BestTrade       float64 `json:"best_trade"`
	WorstTrade      float64 `json:"worst_trade"`
	AverageTradePct float64 `json:"average_trade_pct"`

	// The yearly figures are left unset when compounding the average trade
	// overflows float64.
	YearlyReturnPct         float64 `json:"yearly_return_pct"`
	DailyPositionProjection float64 `json:"daily_position_projection"`
	YearlyReturnApplicable  bool    `json:"yearly_return_applicable"`

	Growth Series             `json:"growth"`
	Trades []TradePerformance `json:"trades"`
}

// AggregateTrades summarises a trade history. Only completed day trades,
// single rows carrying both legs and a profit, count towards performance.
// It reports false when there are no records at all.
func AggregateTrades(trades []core.Trade) (TradeSummary, bool) {
	if len(trades) == 0 {
		return TradeSummary{}, false
	}

	ordered := make([]core.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	s := TradeSummary{TotalRecords: len(ordered)}
	var buyTotal, sellTotal, cumCapital, cumProfit decimal.Decimal
	var profits, pcts []float64
	var start time.Time
	wins := 0

	for _, t := range ordered {
		switch t.Type {
		case core.DayTrade:
			s.DayTrades++
		case core.BuyOnly:
			s.BuyOnly++
		case core.SellOnly:
			s.SellOnly++
		}
		if !t.IsCompletedDayTrade() {
			continue
		}

		profit := t.ProfitLoss.Decimal
		pct := t.ProfitLossPct.Decimal.InexactFloat64()
		perf := TradePerformance{
			ID:        t.ID,
			Symbol:    t.Symbol,
			TradeDate: t.TradeDate,
			Profit:    profit.InexactFloat64(),
			Pct:       pct,
			BuyValue:  t.BuyTotal.Decimal.InexactFloat64(),
			SellValue: t.SellTotal.Decimal.InexactFloat64(),
		}
		s.Trades = append(s.Trades, perf)
		profits = append(profits, perf.Profit)
		pcts = append(pcts, pct)
		if profit.IsPositive() {
			wins++
		}

		buyTotal = buyTotal.Add(t.BuyTotal.Decimal)
		sellTotal = sellTotal.Add(t.SellTotal.Decimal)
		cumCapital = cumCapital.Add(t.BuyTotal.Decimal)
		cumProfit = cumProfit.Add(profit)

		if start.IsZero() {
			start = t.TradeDate.Time
		}
		roi := 0.0
		if cumCapital.IsPositive() {
			roi = cumProfit.Div(cumCapital).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		s.Growth.add(t.TradeDate.String(), roi, rampedTarget(start, t.TradeDate.Time))
	}

	s.TotalTrades = len(s.Trades)
	if s.TotalTrades == 0 {
		return s, true
	}

	net := sellTotal.Sub(buyTotal)
	s.TotalBuyValue = buyTotal.InexactFloat64()
	s.TotalSellValue = sellTotal.InexactFloat64()
	s.NetProfit = net.InexactFloat64()
	if buyTotal.IsPositive() {
		s.ROIPct = net.Div(buyTotal).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	s.WinRate = percent(float64(wins), float64(s.TotalTrades))
	s.AverageProfit = s.NetProfit / float64(s.TotalTrades)
	s.BestTrade = maxOf(profits)
	s.WorstTrade = minOf(profits)
	s.AverageTradePct = mean(pcts)

	growth := math.Pow(1+s.AverageTradePct/100, TradingDaysPerYear)
	yearly := (growth - 1) * 100
	projection := DailyPosition*growth - DailyPosition
	if finite(yearly) && finite(projection) {
		s.YearlyReturnPct = yearly
		s.DailyPositionProjection = projection
		s.YearlyReturnApplicable = true
	}

	return s, true
}

// rampedTarget grows the target linearly from the first trade's date and
// caps it at the annual target.
func rampedTarget(start, at time.Time) float64 {
	days := daysBetween(start, at)
	return math.Min(AnnualTargetROI/TargetRampDays*float64(days), AnnualTargetROI)
}
