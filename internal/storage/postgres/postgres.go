// Package postgres is the gateway backed by a PostgreSQL pool (pgx).
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"bankroll/internal/core"
	"bankroll/internal/storage"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Queryable is satisfied by both the pool and a transaction.
type Queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	pool *pgxpool.Pool
	q    Queryable
}

// Connect creates the pool, verifies it and applies migrations.
func Connect(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool, q: pool}, nil
}

// RunMigrations applies the embedded migrations through a database/sql
// handle opened on the same connection settings.
func RunMigrations(databaseURL string) error {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config.ConnConfig)

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	return storage.RunMigrations(migrationsFS, "migrations", "postgres", driver)
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Numeric, date and time columns are selected as text and parsed here.
const betColumns = `id, team_or_player, sportsbook, result, stake::text, odds::text,
	bet_date::text, potential_payout::text, created_at, updated_at`

func scanBet(row pgx.Row) (core.Bet, error) {
	var (
		b                         core.Bet
		book, result              string
		stake, odds, date, payout string
	)
	err := row.Scan(&b.ID, &b.Pick, &book, &result, &stake, &odds, &date,
		&payout, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return core.Bet{}, err
	}
	b.Sportsbook = core.Sportsbook(book)
	b.Result = core.BetResult(result)
	if b.Stake, err = decimal.NewFromString(stake); err != nil {
		return core.Bet{}, fmt.Errorf("stake: %w", err)
	}
	if b.Odds, err = decimal.NewFromString(odds); err != nil {
		return core.Bet{}, fmt.Errorf("odds: %w", err)
	}
	if b.PotentialPayout, err = decimal.NewFromString(payout); err != nil {
		return core.Bet{}, fmt.Errorf("potential payout: %w", err)
	}
	if b.BetDate, err = core.ParseDate(date); err != nil {
		return core.Bet{}, err
	}
	return b, nil
}

func (r *Repository) ListBets(ctx context.Context) ([]core.Bet, error) {
	rows, err := r.q.Query(ctx, `SELECT `+betColumns+` FROM bets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var bets []core.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}
	return bets, nil
}

func (r *Repository) CreateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO bets (team_or_player, sportsbook, result, stake, odds, bet_date, potential_payout)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::date, $7::numeric)
		RETURNING `+betColumns,
		b.Pick, string(b.Sportsbook), string(b.Result), b.Stake.String(), b.Odds.String(),
		b.BetDate.String(), b.PotentialPayout.String())
	created, err := scanBet(row)
	if err != nil {
		return core.Bet{}, fmt.Errorf("insert bet: %w", err)
	}
	return created, nil
}

func (r *Repository) UpdateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE bets SET team_or_player = $2, sportsbook = $3, result = $4,
			stake = $5::numeric, odds = $6::numeric, bet_date = $7::date,
			potential_payout = $8::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING `+betColumns,
		b.ID, b.Pick, string(b.Sportsbook), string(b.Result), b.Stake.String(), b.Odds.String(),
		b.BetDate.String(), b.PotentialPayout.String())
	updated, err := scanBet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Bet{}, fmt.Errorf("bet %d: %w", b.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Bet{}, fmt.Errorf("update bet %d: %w", b.ID, err)
	}
	return updated, nil
}

func (r *Repository) SetBetResults(ctx context.Context, ids []int64, result core.BetResult) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx,
		`UPDATE bets SET result = $1, updated_at = NOW() WHERE id = ANY($2)`,
		string(result), ids)
	if err != nil {
		return fmt.Errorf("update bet results: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBet(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bet %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bet %d: %w", id, core.ErrNotFound)
	}
	return nil
}

const tradeColumns = `id, symbol, company_name, trade_type, quantity,
	buy_price::text, sell_price::text, buy_total::text, sell_total::text,
	profit_loss::text, profit_loss_percentage::text, trade_date::text,
	to_char(buy_time, 'HH24:MI'), to_char(sell_time, 'HH24:MI'), notes,
	created_at, updated_at`

func scanTrade(row pgx.Row) (core.Trade, error) {
	var (
		t                 core.Trade
		tradeType, date   string
		quantity          int32
		amounts           [6]pgtype.Text
		buyTime, sellTime pgtype.Text
	)
	err := row.Scan(&t.ID, &t.Symbol, &t.CompanyName, &tradeType, &quantity,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4], &amounts[5],
		&date, &buyTime, &sellTime, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Trade{}, err
	}
	t.Type = core.TradeType(tradeType)
	t.Quantity = int64(quantity)
	t.BuyTime = buyTime.String
	t.SellTime = sellTime.String
	if t.TradeDate, err = core.ParseDate(date); err != nil {
		return core.Trade{}, err
	}

	targets := []*decimal.NullDecimal{
		&t.BuyPrice, &t.SellPrice, &t.BuyTotal, &t.SellTotal, &t.ProfitLoss, &t.ProfitLossPct,
	}
	for i, txt := range amounts {
		if !txt.Valid {
			continue
		}
		d, err := decimal.NewFromString(txt.String)
		if err != nil {
			return core.Trade{}, fmt.Errorf("trade amount: %w", err)
		}
		*targets[i] = core.NullMoney(d)
	}
	return t, nil
}

func (r *Repository) ListTrades(ctx context.Context) ([]core.Trade, error) {
	rows, err := r.q.Query(ctx, `SELECT `+tradeColumns+` FROM stocks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []core.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

// tradeArgs lists the editable trade fields in $1..$14 order.
func tradeArgs(t core.Trade) []any {
	return []any{
		t.Symbol, t.CompanyName, string(t.Type), t.Quantity,
		nullDecimal(t.BuyPrice), nullDecimal(t.SellPrice),
		nullDecimal(t.BuyTotal), nullDecimal(t.SellTotal),
		nullDecimal(t.ProfitLoss), nullDecimal(t.ProfitLossPct),
		t.TradeDate.String(), t.BuyTime, t.SellTime, t.Notes,
	}
}

func (r *Repository) CreateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO stocks (symbol, company_name, trade_type, quantity, buy_price, sell_price,
			buy_total, sell_total, profit_loss, profit_loss_percentage, trade_date,
			buy_time, sell_time, notes)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric,
			$9::numeric, $10::numeric, $11::date, NULLIF($12::text, '')::time,
			NULLIF($13::text, '')::time, $14)
		RETURNING `+tradeColumns,
		tradeArgs(t)...)
	created, err := scanTrade(row)
	if err != nil {
		return core.Trade{}, fmt.Errorf("insert trade: %w", err)
	}
	return created, nil
}

func (r *Repository) UpdateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	args := append(tradeArgs(t), t.ID)
	row := r.q.QueryRow(ctx, `
		UPDATE stocks SET symbol = $1, company_name = $2, trade_type = $3, quantity = $4,
			buy_price = $5::numeric, sell_price = $6::numeric, buy_total = $7::numeric,
			sell_total = $8::numeric, profit_loss = $9::numeric,
			profit_loss_percentage = $10::numeric, trade_date = $11::date,
			buy_time = NULLIF($12::text, '')::time, sell_time = NULLIF($13::text, '')::time,
			notes = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING `+tradeColumns,
		args...)
	updated, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Trade{}, fmt.Errorf("trade %d: %w", t.ID, core.ErrNotFound)
	}
	if err != nil {
		return core.Trade{}, fmt.Errorf("update trade %d: %w", t.ID, err)
	}
	return updated, nil
}

func (r *Repository) DeleteTrade(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trade %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trade %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteTrades(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM stocks WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete trades: %w", err)
	}
	return nil
}

// nullDecimal passes an optional amount as text, or NULL when absent.
func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
