// Package worker mirrors record tables into spreadsheet tabs in response to
// change events and on a reconcile schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"bankroll/internal/amqp"
	"bankroll/internal/core"
	"bankroll/internal/log"
	"bankroll/internal/metrics"
	"bankroll/internal/sheets"
)

// RecordReader is the read side of the storage gateway.
type RecordReader interface {
	ListBets(ctx context.Context) ([]core.Bet, error)
	ListTrades(ctx context.Context) ([]core.Trade, error)
}

// Consumer delivers change events until its context ends.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ExportWorker rewrites the bets tab or the trades tab whenever records of
// that kind change. Writes are serialised so a tab is never rewritten by two
// goroutines at once.
type ExportWorker struct {
	records    RecordReader
	tabs       sheets.TabWriter
	betSheet   string
	tradeSheet string
	metrics    *metrics.Metrics
	logger     *log.Logger

	mu sync.Mutex
}

func NewExportWorker(records RecordReader, tabs sheets.TabWriter, betSheet, tradeSheet string, m *metrics.Metrics, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		records:    records,
		tabs:       tabs,
		betSheet:   betSheet,
		tradeSheet: tradeSheet,
		metrics:    m,
		logger:     logger.WithComponent(log.ComponentExport),
	}
}

// HandleRecordChanged rewrites the tab of the kind named in msg.
func (w *ExportWorker) HandleRecordChanged(ctx context.Context, msg amqp.RecordChanged) error {
	w.logger.InfoContext(ctx, "Processing record change",
		log.FieldRecordKind, msg.Kind,
		log.FieldOperation, msg.Op,
		log.FieldRecordCount, len(msg.IDs))

	switch msg.Kind {
	case amqp.KindBet:
		return w.ExportBets(ctx)
	case amqp.KindTrade:
		return w.ExportTrades(ctx)
	default:
		return fmt.Errorf("unknown record kind %q", msg.Kind)
	}
}

// ExportBets rewrites the bets tab from the current table.
func (w *ExportWorker) ExportBets(ctx context.Context) error {
	return w.export(ctx, string(amqp.KindBet), w.betSheet, func(ctx context.Context) ([][]any, error) {
		bets, err := w.records.ListBets(ctx)
		if err != nil {
			return nil, err
		}
		return sheets.BetRows(bets), nil
	})
}

// ExportTrades rewrites the trades tab from the current table.
func (w *ExportWorker) ExportTrades(ctx context.Context) error {
	return w.export(ctx, string(amqp.KindTrade), w.tradeSheet, func(ctx context.Context) ([][]any, error) {
		trades, err := w.records.ListTrades(ctx)
		if err != nil {
			return nil, err
		}
		return sheets.TradeRows(trades), nil
	})
}

func (w *ExportWorker) export(ctx context.Context, kind, sheet string, rows func(context.Context) ([][]any, error)) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	defer func() { w.metrics.SheetExported(kind, time.Since(start), err) }()

	data, err := rows(ctx)
	if err != nil {
		return fmt.Errorf("load %s records: %w", kind, err)
	}
	if err = w.tabs.ReplaceTab(ctx, sheet, data); err != nil {
		return fmt.Errorf("export %s records: %w", kind, err)
	}

	w.logger.InfoContext(ctx, "Sheet updated",
		log.FieldSheet, sheet,
		log.FieldRecordKind, kind,
		log.FieldRecordCount, len(data)-1,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Reconcile rewrites both tabs. It covers events lost while the worker was
// down and is run at startup and on the schedule.
func (w *ExportWorker) Reconcile(ctx context.Context) error {
	return errors.Join(w.ExportBets(ctx), w.ExportTrades(ctx))
}

// Run reconciles once, then consumes change events and reconciles on
// schedule until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, schedule string) error {
	if err := w.Reconcile(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup reconcile failed", log.FieldError, err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if err := w.Reconcile(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled reconcile failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		w.logger.InfoContext(gctx, "Reconcile scheduled", "schedule", schedule)
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Consume(gctx, w.HandleRecordChanged)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
