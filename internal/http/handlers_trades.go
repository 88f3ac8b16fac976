package http

import (
	"context"
	"fmt"
	"net/http"

	"bankroll/internal/core"
	"bankroll/internal/history"
)

func (s *Server) tradeHistory(ctx context.Context, state history.State) tradeHistoryView {
	return tradeHistoryView{TradeView: history.NewTradeView(s.records.FetchTrades(ctx), state)}
}

func (s *Server) handleTradesPage(w http.ResponseWriter, r *http.Request) {
	page := sectionPage{Title: "Trades", Section: "trades", Tab: tabOf(r)}
	switch page.Tab {
	case TabAnalytics:
		page.Data = s.records.TradeAnalytics(r.Context())
	case TabHistory:
		page.Data = s.tradeHistory(r.Context(), ParseHistoryState(r.URL.Query()))
	default:
		page.Data = tradeFormView{Draft: s.records.NewTradeDraft()}
	}
	s.render(w, r, "trades_page", page, nil)
}

func (s *Server) handleTradeForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "trade_form", tradeFormView{Draft: s.records.NewTradeDraft()}, nil)
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	draft, err := ParseTradeDraft(r.Form, s.records.NewTradeDraft())
	if err != nil {
		s.render(w, r, "trade_form", tradeFormView{Draft: draft, Error: errorMessage(err)},
			NewHTMXResponse().Status(statusFor(err)))
		return
	}

	created, err := s.records.CreateTrade(r.Context(), draft)
	if err != nil {
		s.render(w, r, "trade_form", tradeFormView{Draft: draft, Error: errorMessage(err)},
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	resp := NewHTMXResponse().
		TriggerTradesChanged(created.ID).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Trade saved: %s %s x%d",
			created.Type.Label(), created.Symbol, created.Quantity))
	s.render(w, r, "trade_form", tradeFormView{Draft: s.records.NewTradeDraft()}, resp)
}

// recomputeTrade renders either the derived totals or, when the trade type
// changed and the legs shown must follow, the whole form.
func (s *Server) recomputeTrade(w http.ResponseWriter, r *http.Request, base core.TradeDraft) {
	draft, err := ParseTradeDraft(r.Form, base)
	view := tradeFormView{Draft: draft, Filter: formString(r.Form, "filter"), Search: formString(r.Form, "q")}
	if err != nil {
		view.Error = errorMessage(err)
	}
	if r.URL.Query().Get("part") == "form" {
		s.render(w, r, "trade_form", view, nil)
		return
	}
	s.render(w, r, "trade_derived", view, nil)
}

func (s *Server) handleTradeRecompute(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	s.recomputeTrade(w, r, s.records.NewTradeDraft())
}

func (s *Server) handleTradeAnalytics(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "trade_analytics", s.records.TradeAnalytics(r.Context()), nil)
}

func (s *Server) handleTradeChart(w http.ResponseWriter, r *http.Request) {
	report := s.records.TradeAnalytics(r.Context())
	if report.IsFailed() {
		InternalServerError(report.Reason()).Write(w)
		return
	}
	s.writeChart(w, r, report.Data().Summary.Growth, "Cumulative trading return")
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "trade_history", s.tradeHistory(r.Context(), ParseHistoryState(r.Form)), nil)
}

func (s *Server) handleTradeSelectAll(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	state := ParseHistoryState(r.Form)
	trades := s.records.FetchTrades(r.Context())
	view := history.NewTradeView(trades, state)
	state.Selection = view.Selection.ToggleAll(view.VisibleIDs())
	s.render(w, r, "trade_history", tradeHistoryView{TradeView: history.NewTradeView(trades, state)}, nil)
}

// handleTradeBulk deletes the selected trades in one gateway call.
func (s *Server) handleTradeBulk(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	state := ParseHistoryState(r.Form)

	if !history.ValidTradeAction(state.Action) {
		view := s.tradeHistory(ctx, state)
		view.Error = "Choose an action to apply"
		s.render(w, r, "trade_history", view, NewHTMXResponse().Status(http.StatusUnprocessableEntity))
		return
	}

	ids, err := ParseSelectedIDs(r.Form)
	if err != nil {
		view := s.tradeHistory(ctx, state)
		view.Error = "Invalid selection: " + err.Error()
		s.render(w, r, "trade_history", view, NewHTMXResponse().Status(http.StatusBadRequest))
		return
	}
	if err := s.records.DeleteTrades(ctx, ids); err != nil {
		view := s.tradeHistory(ctx, state)
		view.Error = errorMessage(err)
		s.render(w, r, "trade_history", view,
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	state.Selection = history.Selection{}
	state.Action = history.ActionNone
	resp := NewHTMXResponse()
	if len(ids) > 0 {
		resp.TriggerTradesChanged(ids...).
			TriggerSuccessNotification(fmt.Sprintf("Deleted %d trade(s)", len(ids)))
	}
	s.render(w, r, "trade_history", s.tradeHistory(ctx, state), resp)
}

func (s *Server) handleTradeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	trade, err := s.records.FindTrade(r.Context(), id)
	if err != nil {
		ErrorResponse(statusFor(err), errorMessage(err)).Write(w)
		return
	}
	q := r.URL.Query()
	s.render(w, r, "trade_form", tradeFormView{
		Draft:  core.TradeDraftFrom(trade),
		Filter: formString(q, "filter"),
		Search: formString(q, "q"),
	}, nil)
}

func (s *Server) handleTradeEditRecompute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	base := s.records.NewTradeDraft()
	base.ID = id
	s.recomputeTrade(w, r, base)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	state := ParseHistoryState(r.Form)

	trade, err := s.records.FindTrade(ctx, id)
	if err != nil {
		ErrorResponse(statusFor(err), errorMessage(err)).Write(w)
		return
	}
	draft, err := ParseTradeDraft(r.Form, core.TradeDraftFrom(trade))
	draft.ID = id
	if err == nil {
		_, err = s.records.UpdateTrade(ctx, draft)
	}
	if err != nil {
		s.render(w, r, "trade_form", tradeFormView{Draft: draft, Error: errorMessage(err), Filter: state.Filter, Search: state.Search},
			NewHTMXResponse().Status(statusFor(err)))
		return
	}

	resp := NewHTMXResponse().
		Header("HX-Retarget", tradeHistoryTarget).
		Header("HX-Reswap", "outerHTML").
		TriggerTradesChanged(id).
		TriggerSuccessNotification("Trade updated")
	state.Selection = history.Selection{}
	s.render(w, r, "trade_history", s.tradeHistory(ctx, state), resp)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	state := ParseHistoryState(r.Form)

	if err := s.records.DeleteTrade(ctx, id); err != nil {
		view := s.tradeHistory(ctx, state)
		view.Error = errorMessage(err)
		s.render(w, r, "trade_history", view,
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	delete(state.Selection, id)
	s.render(w, r, "trade_history", s.tradeHistory(ctx, state),
		NewHTMXResponse().TriggerTradesChanged(id).TriggerSuccessNotification("Trade deleted"))
}
