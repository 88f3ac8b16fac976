package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bankroll/internal/core"
	"bankroll/internal/history"
	"bankroll/internal/log"
	"bankroll/internal/services"
)

// Section tabs.
const (
	TabInput     = "input"
	TabAnalytics = "analytics"
	TabHistory   = "history"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":     core.FormatMoney,
		"moneyf":    core.FormatMoneyFloat,
		"nullMoney": core.FormatNullMoney,
		"pct":       func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) + "%" },
		"nullPct": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return "-"
			}
			return d.Decimal.StringFixed(2) + "%"
		},
		"num": func(d decimal.Decimal) string {
			if d.IsZero() {
				return ""
			}
			return d.String()
		},
		"qty": func(q int64) string {
			if q == 0 {
				return ""
			}
			return strconv.FormatInt(q, 10)
		},
		"selected":     func(sel history.Selection, id int64) bool { return sel.Has(id) },
		"filterLabel":  filterLabel,
		"sportsbooks":  core.Sportsbooks,
		"betResults":   core.BetResults,
		"tradeTypes":   core.TradeTypes,
		"betFilters":   history.BetFilters,
		"tradeFilters": history.TradeFilters,
		"decPct":       func(d decimal.Decimal) string { return d.StringFixed(2) + "%" },
		"signClass":    signClass,
	}
}

// signClass returns the CSS class for a gain or a loss.
func signClass(v any) string {
	var sign int
	switch n := v.(type) {
	case float64:
		switch {
		case n > 0:
			sign = 1
		case n < 0:
			sign = -1
		}
	case decimal.Decimal:
		sign = n.Sign()
	case decimal.NullDecimal:
		if n.Valid {
			sign = n.Decimal.Sign()
		}
	}
	switch sign {
	case 1:
		return "gain"
	case -1:
		return "loss"
	}
	return ""
}

func filterLabel(f string) string {
	if f == history.FilterAll {
		return "All"
	}
	if t := core.TradeType(f); t.IsValid() {
		return t.Label()
	}
	if f == "" {
		return f
	}
	return strings.ToUpper(f[:1]) + f[1:]
}

// Page data.
type (
	sectionPage struct {
		Title   string
		Section string
		Tab     string
		Data    any
	}

	overviewPage struct {
		Title   string
		Section string
		Bets    core.Result[services.BetReport]
		Trades  core.Result[services.TradeReport]
	}

	// Filter and Search carry the history state through an edit so the
	// table comes back the way it was left.
	betFormView struct {
		Draft  core.BetDraft
		Error  string
		Filter string
		Search string
	}

	tradeFormView struct {
		Draft  core.TradeDraft
		Error  string
		Filter string
		Search string
	}

	betHistoryView struct {
		history.BetView
		Error string
	}

	tradeHistoryView struct {
		history.TradeView
		Error string
	}
)

// IsEdit reports whether the form edits an existing record.
func (v betFormView) IsEdit() bool { return v.Draft.ID > 0 }

// RecomputeURL is where the form posts for live payout updates.
func (v betFormView) RecomputeURL() string {
	if v.IsEdit() {
		return fmt.Sprintf("/bets/%d/edit/recompute", v.Draft.ID)
	}
	return "/bets/input/recompute"
}

// HistoryURL reloads the history tab with the filter and search the edit
// was opened from.
func (v betFormView) HistoryURL() string { return historyURL("/bets/history", v.Filter, v.Search) }

func (v tradeFormView) IsEdit() bool { return v.Draft.ID > 0 }

func (v tradeFormView) HistoryURL() string { return historyURL("/trades/history", v.Filter, v.Search) }

func (v tradeFormView) RecomputeURL() string {
	if v.IsEdit() {
		return fmt.Sprintf("/trades/%d/edit/recompute", v.Draft.ID)
	}
	return "/trades/input/recompute"
}

func historyURL(path, filter, search string) string {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if search != "" {
		q.Set("q", search)
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// render executes the named template and sends it through b. A template
// failure becomes a bare 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any, b *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContextOr(r.Context(), s.logger).ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			log.FieldError, err,
			"template", name)
		InternalServerError("Something went wrong. Please try again.").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(buf.Bytes()).Write(w)
}

// statusFor maps a service error to the response status.
func statusFor(err error) int {
	var fe *FieldError
	switch {
	case errors.Is(err, services.ErrValidation), errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown for err in a view.
func errorMessage(err error) string {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return fmt.Sprintf("Invalid %s: %v", strings.ReplaceAll(fe.Field, "_", " "), fe.Err)
	case errors.Is(err, core.ErrNotFound):
		return "Record not found"
	default:
		return services.UserMessage(err)
	}
}

// tabOf returns the requested section tab, defaulting to input.
func tabOf(r *http.Request) string {
	switch tab := r.URL.Query().Get("tab"); tab {
	case TabAnalytics, TabHistory:
		return tab
	default:
		return TabInput
	}
}
