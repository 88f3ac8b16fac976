package http

import (
	"context"
	"fmt"
	"net/http"

	"bankroll/internal/core"
	"bankroll/internal/history"
)

// Targets the history partial swaps into after an edit.
const (
	betHistoryTarget   = "#bet-history"
	tradeHistoryTarget = "#trade-history"
)

func (s *Server) betHistory(ctx context.Context, state history.State) betHistoryView {
	return betHistoryView{BetView: history.NewBetView(s.records.FetchBets(ctx), state)}
}

func (s *Server) handleBetsPage(w http.ResponseWriter, r *http.Request) {
	page := sectionPage{Title: "Bets", Section: "bets", Tab: tabOf(r)}
	switch page.Tab {
	case TabAnalytics:
		page.Data = s.records.BetAnalytics(r.Context())
	case TabHistory:
		page.Data = s.betHistory(r.Context(), ParseHistoryState(r.URL.Query()))
	default:
		page.Data = betFormView{Draft: s.records.NewBetDraft()}
	}
	s.render(w, r, "bets_page", page, nil)
}

func (s *Server) handleBetForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "bet_form", betFormView{Draft: s.records.NewBetDraft()}, nil)
}

func (s *Server) handleCreateBet(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	draft, err := ParseBetDraft(r.Form, s.records.NewBetDraft())
	if err != nil {
		s.render(w, r, "bet_form", betFormView{Draft: draft, Error: errorMessage(err)},
			NewHTMXResponse().Status(statusFor(err)))
		return
	}

	created, err := s.records.CreateBet(r.Context(), draft)
	if err != nil {
		s.render(w, r, "bet_form", betFormView{Draft: draft, Error: errorMessage(err)},
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	resp := NewHTMXResponse().
		TriggerBetsChanged(created.ID).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Bet saved: %s, %s at %s",
			created.Pick, core.FormatMoney(created.Stake), created.Odds.String()))
	s.render(w, r, "bet_form", betFormView{Draft: s.records.NewBetDraft()}, resp)
}

// handleBetRecompute refreshes the derived payout while the user types.
// Parse errors are shown but never block the preview.
func (s *Server) handleBetRecompute(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	draft, err := ParseBetDraft(r.Form, s.records.NewBetDraft())
	view := betFormView{Draft: draft}
	if err != nil {
		view.Error = errorMessage(err)
	}
	s.render(w, r, "bet_derived", view, nil)
}

func (s *Server) handleBetAnalytics(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "bet_analytics", s.records.BetAnalytics(r.Context()), nil)
}

func (s *Server) handleBetChart(w http.ResponseWriter, r *http.Request) {
	report := s.records.BetAnalytics(r.Context())
	if report.IsFailed() {
		InternalServerError(report.Reason()).Write(w)
		return
	}
	s.writeChart(w, r, report.Data().Summary.Growth, "Bankroll growth")
}

func (s *Server) handleBetHistory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "bet_history", s.betHistory(r.Context(), ParseHistoryState(r.Form)), nil)
}

// handleBetSelectAll selects every visible bet, or clears the selection when
// all of them are selected already.
func (s *Server) handleBetSelectAll(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	state := ParseHistoryState(r.Form)
	bets := s.records.FetchBets(r.Context())
	view := history.NewBetView(bets, state)
	state.Selection = view.Selection.ToggleAll(view.VisibleIDs())
	s.render(w, r, "bet_history", betHistoryView{BetView: history.NewBetView(bets, state)}, nil)
}

func (s *Server) handleBetBulk(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	state := ParseHistoryState(r.Form)

	result, ok := history.BetAction(state.Action)
	if !ok {
		view := s.betHistory(ctx, state)
		view.Error = "Choose an action to apply"
		s.render(w, r, "bet_history", view, NewHTMXResponse().Status(http.StatusUnprocessableEntity))
		return
	}

	ids, err := ParseSelectedIDs(r.Form)
	if err != nil {
		view := s.betHistory(ctx, state)
		view.Error = "Invalid selection: " + err.Error()
		s.render(w, r, "bet_history", view, NewHTMXResponse().Status(http.StatusBadRequest))
		return
	}
	if err := s.records.SetBetResults(ctx, ids, result); err != nil {
		view := s.betHistory(ctx, state)
		view.Error = errorMessage(err)
		s.render(w, r, "bet_history", view,
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	state.Selection = history.Selection{}
	state.Action = history.ActionNone
	resp := NewHTMXResponse()
	if len(ids) > 0 {
		resp.TriggerBetsChanged(ids...).
			TriggerSuccessNotification(fmt.Sprintf("Marked %d bet(s) as %s", len(ids), result))
	}
	s.render(w, r, "bet_history", s.betHistory(ctx, state), resp)
}

// handleBetResult is the inline result change of one history row.
func (s *Server) handleBetResult(w http.ResponseWriter, r *http.Request) {
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
	result := core.BetResult(formString(r.Form, "result"))

	if err := s.records.SetBetResult(ctx, id, result); err != nil {
		view := s.betHistory(ctx, state)
		view.Error = errorMessage(err)
		s.render(w, r, "bet_history", view,
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}
	s.render(w, r, "bet_history", s.betHistory(ctx, state), NewHTMXResponse().TriggerBetsChanged(id))
}

func (s *Server) handleBetEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	bet, err := s.records.FindBet(r.Context(), id)
	if err != nil {
		ErrorResponse(statusFor(err), errorMessage(err)).Write(w)
		return
	}
	q := r.URL.Query()
	s.render(w, r, "bet_form", betFormView{
		Draft:  core.BetDraftFrom(bet),
		Filter: formString(q, "filter"),
		Search: formString(q, "q"),
	}, nil)
}

func (s *Server) handleBetEditRecompute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	base := s.records.NewBetDraft()
	base.ID = id
	draft, err := ParseBetDraft(r.Form, base)
	view := betFormView{Draft: draft}
	if err != nil {
		view.Error = errorMessage(err)
	}
	s.render(w, r, "bet_derived", view, nil)
}

// handleUpdateBet saves the edit form. On success the whole history table
// replaces the editor.
func (s *Server) handleUpdateBet(w http.ResponseWriter, r *http.Request) {
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

	bet, err := s.records.FindBet(ctx, id)
	if err != nil {
		ErrorResponse(statusFor(err), errorMessage(err)).Write(w)
		return
	}
	draft, err := ParseBetDraft(r.Form, core.BetDraftFrom(bet))
	draft.ID = id
	if err == nil {
		_, err = s.records.UpdateBet(ctx, draft)
	}
	if err != nil {
		s.render(w, r, "bet_form", betFormView{Draft: draft, Error: errorMessage(err), Filter: state.Filter, Search: state.Search},
			NewHTMXResponse().Status(statusFor(err)))
		return
	}

	resp := NewHTMXResponse().
		Header("HX-Retarget", betHistoryTarget).
		Header("HX-Reswap", "outerHTML").
		TriggerBetsChanged(id).
		TriggerSuccessNotification("Bet updated")
	state.Selection = history.Selection{}
	s.render(w, r, "bet_history", s.betHistory(ctx, state), resp)
}

func (s *Server) handleDeleteBet(w http.ResponseWriter, r *http.Request) {
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

	if err := s.records.DeleteBet(ctx, id); err != nil {
		view := s.betHistory(ctx, state)
		view.Error = errorMessage(err)
		s.render(w, r, "bet_history", view,
			NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(errorMessage(err)))
		return
	}

	delete(state.Selection, id)
	s.render(w, r, "bet_history", s.betHistory(ctx, state),
		NewHTMXResponse().TriggerBetsChanged(id).TriggerSuccessNotification("Bet deleted"))
}
