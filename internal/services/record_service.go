// Package services orchestrates record writes, reads and analytics over the
// storage gateway and turns failures into the short messages shown to users.
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bankroll/internal/amqp"
	"bankroll/internal/analytics"
	"bankroll/internal/core"
	"bankroll/internal/log"
	"bankroll/internal/metrics"
	"bankroll/internal/storage"
)

// Messages shown to users when a gateway call fails.
const (
	MsgLoadBets        = "Failed to load bet data"
	MsgLoadTrades      = "Failed to load trade data"
	MsgLoadPerformance = "Failed to load performance data"
	MsgUpdateBets      = "Failed to update bets"
	MsgUpdateBet       = "Failed to update bet"
	MsgDeleteBet       = "Failed to delete bet"
	MsgAddBet          = "Error adding bet. Please try again."
	MsgUpdateTrade     = "Failed to update trade"
	MsgDeleteTrade     = "Failed to delete trade"
	MsgDeleteTrades    = "Failed to delete trades"
	MsgAddTrade        = "Error adding trade. Please try again."
)

const (
	kindBet   = "bet"
	kindTrade = "trade"
)

// ErrValidation marks input rejected before reaching the gateway.
var ErrValidation = errors.New("validation failed")

// UserError pairs a gateway failure with the message shown in the view.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message + ": " + e.Err.Error() }

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage returns the text to show for err. Validation failures show
// their own reason.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	if errors.Is(err, ErrValidation) {
		return validationReason(err)
	}
	return "Something went wrong. Please try again."
}

func validationReason(err error) string {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			if e != ErrValidation {
				return e.Error()
			}
		}
	}
	return err.Error()
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// EventPublisher sends record-change events to the export worker.
type EventPublisher interface {
	PublishRecordChanged(ctx context.Context, msg amqp.RecordChanged) error
}

// BetReport is the analytics view of the bet table. HasData is false when
// the table is empty.
type BetReport struct {
	Summary analytics.BetSummary `json:"summary"`
	HasData bool                 `json:"has_data"`
}

// TradeReport is the analytics view of the trade table.
type TradeReport struct {
	Summary analytics.TradeSummary `json:"summary"`
	HasData bool                   `json:"has_data"`
}

type RecordService struct {
	gateway   storage.Gateway
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *log.Logger

	// Now stamps drafts; NewRand seeds each goal projection.
	Now     func() time.Time
	NewRand func() *rand.Rand
}

// NewRecordService wires the service. publisher and m may be nil.
func NewRecordService(gateway storage.Gateway, publisher EventPublisher, m *metrics.Metrics, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RecordService{
		gateway:   gateway,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		Now:       time.Now,
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// NewBetDraft returns an empty bet form for today.
func (s *RecordService) NewBetDraft() core.BetDraft { return core.NewBetDraft(s.Now()) }

// NewTradeDraft returns an empty trade form for today at the current time.
func (s *RecordService) NewTradeDraft() core.TradeDraft { return core.NewTradeDraft(s.Now()) }

// Ping reports whether the gateway is reachable.
func (s *RecordService) Ping(ctx context.Context) error {
	return s.gateway.Ping(ctx)
}

func (s *RecordService) loggerFor(ctx context.Context, component string) *log.Logger {
	return log.FromContextOr(ctx, s.logger).WithComponent(component)
}

// fail logs a gateway error and wraps it for the view.
func (s *RecordService) fail(ctx context.Context, component, op, msg string, err error, fields log.LogFields) error {
	if fields == nil {
		fields = log.NewFields()
	}
	s.loggerFor(ctx, component).ErrorContext(ctx, msg, fields.WithError(err).WithOperation(op).ToSlice()...)
	return &UserError{Message: msg, Err: err}
}

func (s *RecordService) publish(ctx context.Context, kind amqp.RecordKind, op amqp.Op, ids ...int64) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishRecordChanged(ctx, amqp.NewRecordChanged(kind, op, ids...))
	s.metrics.EventPublished(err)
	if err != nil {
		s.loggerFor(ctx, log.ComponentAMQP).WarnContext(ctx, "Failed to publish record change",
			log.FieldRecordKind, kind, log.FieldOperation, op, log.FieldError, err)
	}
}

// ListBets returns every bet, newest first.
func (s *RecordService) ListBets(ctx context.Context) ([]core.Bet, error) {
	bets, err := s.gateway.ListBets(ctx)
	if err != nil {
		s.metrics.FetchFailed(kindBet)
		return nil, s.fail(ctx, log.ComponentBets, log.OpList, MsgLoadBets, err, nil)
	}
	return bets, nil
}

// FetchBets is ListBets as a view result.
func (s *RecordService) FetchBets(ctx context.Context) core.Result[[]core.Bet] {
	return toResult(s.ListBets(ctx))
}

// ListTrades returns every trade, newest first.
func (s *RecordService) ListTrades(ctx context.Context) ([]core.Trade, error) {
	trades, err := s.gateway.ListTrades(ctx)
	if err != nil {
		s.metrics.FetchFailed(kindTrade)
		return nil, s.fail(ctx, log.ComponentTrades, log.OpList, MsgLoadTrades, err, nil)
	}
	return trades, nil
}

// FetchTrades is ListTrades as a view result.
func (s *RecordService) FetchTrades(ctx context.Context) core.Result[[]core.Trade] {
	return toResult(s.ListTrades(ctx))
}

// FindBet returns the bet with id from a fresh table read. The error wraps
// core.ErrNotFound when no bet has that id.
func (s *RecordService) FindBet(ctx context.Context, id int64) (core.Bet, error) {
	bets, err := s.ListBets(ctx)
	if err != nil {
		return core.Bet{}, err
	}
	for _, b := range bets {
		if b.ID == id {
			return b, nil
		}
	}
	return core.Bet{}, fmt.Errorf("bet %d: %w", id, core.ErrNotFound)
}

// FindTrade is FindBet for trades.
func (s *RecordService) FindTrade(ctx context.Context, id int64) (core.Trade, error) {
	trades, err := s.ListTrades(ctx)
	if err != nil {
		return core.Trade{}, err
	}
	for _, t := range trades {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Trade{}, fmt.Errorf("trade %d: %w", id, core.ErrNotFound)
}

func toResult[T any](data T, err error) core.Result[T] {
	if err != nil {
		return core.Failed[T](UserMessage(err))
	}
	return core.Loaded(data)
}

// BetAnalytics loads the bet table and aggregates it.
func (s *RecordService) BetAnalytics(ctx context.Context) core.Result[BetReport] {
	bets, err := s.gateway.ListBets(ctx)
	if err != nil {
		s.metrics.FetchFailed(kindBet)
		return core.Failed[BetReport](UserMessage(
			s.fail(ctx, log.ComponentAnalytics, log.OpAggregate, MsgLoadPerformance, err, log.NewFields().WithRecord(kindBet, 0))))
	}
	agg := analytics.NewBetAggregator(s.NewRand())
	agg.Now = s.Now
	summary, ok := agg.Aggregate(bets)
	return core.Loaded(BetReport{Summary: summary, HasData: ok})
}

// TradeAnalytics loads the trade table and aggregates it.
func (s *RecordService) TradeAnalytics(ctx context.Context) core.Result[TradeReport] {
	trades, err := s.gateway.ListTrades(ctx)
	if err != nil {
		s.metrics.FetchFailed(kindTrade)
		return core.Failed[TradeReport](UserMessage(
			s.fail(ctx, log.ComponentAnalytics, log.OpAggregate, MsgLoadPerformance, err, log.NewFields().WithRecord(kindTrade, 0))))
	}
	summary, ok := analytics.AggregateTrades(trades)
	return core.Loaded(TradeReport{Summary: summary, HasData: ok})
}

func betFields(b core.Bet) log.LogFields {
	return log.NewFields().
		WithRecord(kindBet, b.ID).
		WithBet(string(b.Sportsbook), string(b.Result), b.Stake.String(), b.Odds.String())
}

func tradeFields(t core.Trade) log.LogFields {
	return log.NewFields().
		WithRecord(kindTrade, t.ID).
		WithTrade(t.Symbol, string(t.Type))
}

// CreateBet recomputes the draft's payout and inserts it.
func (s *RecordService) CreateBet(ctx context.Context, draft core.BetDraft) (core.Bet, error) {
	draft.ID = 0
	draft.Recompute()
	bet := draft.Bet()
	if err := bet.Validate(); err != nil {
		return core.Bet{}, invalid(err)
	}

	created, err := s.gateway.CreateBet(ctx, bet)
	s.metrics.RecordWrite(kindBet, log.OpCreate, err)
	if err != nil {
		return core.Bet{}, s.fail(ctx, log.ComponentBets, log.OpCreate, MsgAddBet, err, betFields(bet))
	}

	s.loggerFor(ctx, log.ComponentBets).InfoContext(ctx, "Bet saved", betFields(created).ToSlice()...)
	s.publish(ctx, amqp.KindBet, amqp.OpCreate, created.ID)
	return created, nil
}

// UpdateBet recomputes the draft and replaces the stored bet.
func (s *RecordService) UpdateBet(ctx context.Context, draft core.BetDraft) (core.Bet, error) {
	draft.Recompute()
	bet := draft.Bet()
	if bet.ID <= 0 {
		return core.Bet{}, invalid(errors.New("missing bet id"))
	}
	if err := bet.Validate(); err != nil {
		return core.Bet{}, invalid(err)
	}

	updated, err := s.gateway.UpdateBet(ctx, bet)
	s.metrics.RecordWrite(kindBet, log.OpUpdate, err)
	if err != nil {
		return core.Bet{}, s.fail(ctx, log.ComponentBets, log.OpUpdate, MsgUpdateBet, err, betFields(bet))
	}

	s.publish(ctx, amqp.KindBet, amqp.OpUpdate, updated.ID)
	return updated, nil
}

// SetBetResult is the inline result change of a single bet.
func (s *RecordService) SetBetResult(ctx context.Context, id int64, result core.BetResult) error {
	if !result.IsValid() {
		return invalid(core.ErrInvalidResult)
	}
	err := s.gateway.SetBetResults(ctx, []int64{id}, result)
	s.metrics.RecordWrite(kindBet, log.OpUpdate, err)
	if err != nil {
		return s.fail(ctx, log.ComponentBets, log.OpUpdate, MsgUpdateBet, err, log.NewFields().WithRecord(kindBet, id))
	}
	s.publish(ctx, amqp.KindBet, amqp.OpUpdate, id)
	return nil
}

// SetBetResults applies result to every id in one gateway call. An empty
// selection is a no-op.
func (s *RecordService) SetBetResults(ctx context.Context, ids []int64, result core.BetResult) error {
	if !result.IsValid() {
		return invalid(core.ErrInvalidResult)
	}
	if len(ids) == 0 {
		return nil
	}
	err := s.gateway.SetBetResults(ctx, ids, result)
	s.metrics.RecordWrite(kindBet, log.OpBulkUpdate, err)
	if err != nil {
		fields := log.NewFields().WithRecord(kindBet, 0)
		fields[log.FieldRecordCount] = len(ids)
		return s.fail(ctx, log.ComponentBets, log.OpBulkUpdate, MsgUpdateBets, err, fields)
	}
	s.publish(ctx, amqp.KindBet, amqp.OpBulkUpdate, ids...)
	return nil
}

// DeleteBet removes one bet.
func (s *RecordService) DeleteBet(ctx context.Context, id int64) error {
	err := s.gateway.DeleteBet(ctx, id)
	s.metrics.RecordWrite(kindBet, log.OpDelete, err)
	if err != nil {
		return s.fail(ctx, log.ComponentBets, log.OpDelete, MsgDeleteBet, err, log.NewFields().WithRecord(kindBet, id))
	}
	s.publish(ctx, amqp.KindBet, amqp.OpDelete, id)
	return nil
}

// CreateTrade recomputes the draft's totals and inserts only the legs its
// type carries.
func (s *RecordService) CreateTrade(ctx context.Context, draft core.TradeDraft) (core.Trade, error) {
	draft.ID = 0
	draft.Recompute()
	trade := draft.Trade()
	if err := trade.Validate(); err != nil {
		return core.Trade{}, invalid(err)
	}

	created, err := s.gateway.CreateTrade(ctx, trade)
	s.metrics.RecordWrite(kindTrade, log.OpCreate, err)
	if err != nil {
		return core.Trade{}, s.fail(ctx, log.ComponentTrades, log.OpCreate, MsgAddTrade, err, tradeFields(trade))
	}

	s.loggerFor(ctx, log.ComponentTrades).InfoContext(ctx, "Trade saved", tradeFields(created).ToSlice()...)
	s.publish(ctx, amqp.KindTrade, amqp.OpCreate, created.ID)
	return created, nil
}

// UpdateTrade recomputes the draft and replaces the stored trade.
func (s *RecordService) UpdateTrade(ctx context.Context, draft core.TradeDraft) (core.Trade, error) {
	draft.Recompute()
	trade := draft.Trade()
	if trade.ID <= 0 {
		return core.Trade{}, invalid(errors.New("missing trade id"))
	}
	if err := trade.Validate(); err != nil {
		return core.Trade{}, invalid(err)
	}

	updated, err := s.gateway.UpdateTrade(ctx, trade)
	s.metrics.RecordWrite(kindTrade, log.OpUpdate, err)
	if err != nil {
		return core.Trade{}, s.fail(ctx, log.ComponentTrades, log.OpUpdate, MsgUpdateTrade, err, tradeFields(trade))
	}

	s.publish(ctx, amqp.KindTrade, amqp.OpUpdate, updated.ID)
	return updated, nil
}

// DeleteTrade removes one trade.
func (s *RecordService) DeleteTrade(ctx context.Context, id int64) error {
	err := s.gateway.DeleteTrade(ctx, id)
	s.metrics.RecordWrite(kindTrade, log.OpDelete, err)
	if err != nil {
		return s.fail(ctx, log.ComponentTrades, log.OpDelete, MsgDeleteTrade, err, log.NewFields().WithRecord(kindTrade, id))
	}
	s.publish(ctx, amqp.KindTrade, amqp.OpDelete, id)
	return nil
}

// DeleteTrades removes every id in one gateway call. An empty selection is a
// no-op.
func (s *RecordService) DeleteTrades(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.gateway.DeleteTrades(ctx, ids)
	s.metrics.RecordWrite(kindTrade, log.OpBulkDelete, err)
	if err != nil {
		fields := log.NewFields().WithRecord(kindTrade, 0)
		fields[log.FieldRecordCount] = len(ids)
		return s.fail(ctx, log.ComponentTrades, log.OpBulkDelete, MsgDeleteTrades, err, fields)
	}
	s.publish(ctx, amqp.KindTrade, amqp.OpBulkDelete, ids...)
	return nil
}
