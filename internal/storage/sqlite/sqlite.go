// Package sqlite is the single-file gateway backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bankroll/internal/core"
	"bankroll/internal/storage"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file if needed, applies migrations and returns a
// ready repository.
func Open(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, now: time.Now}, nil
}

func runMigrations(dbPath string) error {
	// Separate connection: closing the migrate instance closes its database.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		migrateDB.Close()
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	return storage.RunMigrations(migrationsFS, "migrations", "sqlite", driver)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const betColumns = `id, team_or_player, sportsbook, result, stake, odds, bet_date,
	potential_payout, created_at, updated_at`

func (r *Repository) ListBets(ctx context.Context) ([]core.Bet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+betColumns+` FROM bets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	var bets []core.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}
	return bets, nil
}

func scanBet(rows *sql.Rows) (core.Bet, error) {
	var (
		b                    core.Bet
		result, book         string
		createdAt, updatedAt string
	)
	err := rows.Scan(&b.ID, &b.Pick, &book, &result, &b.Stake, &b.Odds, &b.BetDate,
		&b.PotentialPayout, &createdAt, &updatedAt)
	if err != nil {
		return core.Bet{}, fmt.Errorf("scan bet: %w", err)
	}
	b.Sportsbook = core.Sportsbook(book)
	b.Result = core.BetResult(result)
	if b.CreatedAt, err = storage.ParseTimestamp(createdAt); err != nil {
		return core.Bet{}, fmt.Errorf("bet %d created_at: %w", b.ID, err)
	}
	if b.UpdatedAt, err = storage.ParseTimestamp(updatedAt); err != nil {
		return core.Bet{}, fmt.Errorf("bet %d updated_at: %w", b.ID, err)
	}
	return b, nil
}

func (r *Repository) CreateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bets (team_or_player, sportsbook, result, stake, odds, bet_date,
			potential_payout, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Pick, string(b.Sportsbook), string(b.Result), b.Stake, b.Odds, b.BetDate,
		b.PotentialPayout, storage.FormatTimestamp(now), storage.FormatTimestamp(now))
	if err != nil {
		return core.Bet{}, fmt.Errorf("insert bet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bet{}, fmt.Errorf("bet id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (r *Repository) UpdateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx,
		`UPDATE bets SET team_or_player = ?, sportsbook = ?, result = ?, stake = ?,
			odds = ?, bet_date = ?, potential_payout = ?, updated_at = ?
		 WHERE id = ?`,
		b.Pick, string(b.Sportsbook), string(b.Result), b.Stake, b.Odds, b.BetDate,
		b.PotentialPayout, storage.FormatTimestamp(now), b.ID)
	if err != nil {
		return core.Bet{}, fmt.Errorf("update bet %d: %w", b.ID, err)
	}
	if err := expectRow(res, "bet", b.ID); err != nil {
		return core.Bet{}, err
	}
	b.UpdatedAt = now
	return b, nil
}

func (r *Repository) SetBetResults(ctx context.Context, ids []int64, result core.BetResult) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{string(result), storage.FormatTimestamp(r.now())}
	args = append(args, idArgs(ids)...)
	_, err := r.db.ExecContext(ctx,
		`UPDATE bets SET result = ?, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("update bet results: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBet(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bet %d: %w", id, err)
	}
	return expectRow(res, "bet", id)
}

const tradeColumns = `id, symbol, company_name, trade_type, quantity, buy_price, sell_price,
	buy_total, sell_total, profit_loss, profit_loss_percentage, trade_date,
	buy_time, sell_time, notes, created_at, updated_at`

func (r *Repository) ListTrades(ctx context.Context) ([]core.Trade, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM stocks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []core.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (core.Trade, error) {
	var (
		t                    core.Trade
		tradeType            string
		buyTime, sellTime    sql.NullString
		createdAt, updatedAt string
	)
	err := rows.Scan(&t.ID, &t.Symbol, &t.CompanyName, &tradeType, &t.Quantity,
		&t.BuyPrice, &t.SellPrice, &t.BuyTotal, &t.SellTotal, &t.ProfitLoss,
		&t.ProfitLossPct, &t.TradeDate, &buyTime, &sellTime, &t.Notes,
		&createdAt, &updatedAt)
	if err != nil {
		return core.Trade{}, fmt.Errorf("scan trade: %w", err)
	}
	t.Type = core.TradeType(tradeType)
	t.BuyTime = buyTime.String
	t.SellTime = sellTime.String
	if t.CreatedAt, err = storage.ParseTimestamp(createdAt); err != nil {
		return core.Trade{}, fmt.Errorf("trade %d created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = storage.ParseTimestamp(updatedAt); err != nil {
		return core.Trade{}, fmt.Errorf("trade %d updated_at: %w", t.ID, err)
	}
	return t, nil
}

func (r *Repository) CreateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stocks (symbol, company_name, trade_type, quantity, buy_price,
			sell_price, buy_total, sell_total, profit_loss, profit_loss_percentage,
			trade_date, buy_time, sell_time, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Symbol, t.CompanyName, string(t.Type), t.Quantity, t.BuyPrice, t.SellPrice,
		t.BuyTotal, t.SellTotal, t.ProfitLoss, t.ProfitLossPct, t.TradeDate,
		nullString(t.BuyTime), nullString(t.SellTime), t.Notes,
		storage.FormatTimestamp(now), storage.FormatTimestamp(now))
	if err != nil {
		return core.Trade{}, fmt.Errorf("insert trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Trade{}, fmt.Errorf("trade id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

func (r *Repository) UpdateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	now := r.now().UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx,
		`UPDATE stocks SET symbol = ?, company_name = ?, trade_type = ?, quantity = ?,
			buy_price = ?, sell_price = ?, buy_total = ?, sell_total = ?, profit_loss = ?,
			profit_loss_percentage = ?, trade_date = ?, buy_time = ?, sell_time = ?,
			notes = ?, updated_at = ?
		 WHERE id = ?`,
		t.Symbol, t.CompanyName, string(t.Type), t.Quantity, t.BuyPrice, t.SellPrice,
		t.BuyTotal, t.SellTotal, t.ProfitLoss, t.ProfitLossPct, t.TradeDate,
		nullString(t.BuyTime), nullString(t.SellTime), t.Notes,
		storage.FormatTimestamp(now), t.ID)
	if err != nil {
		return core.Trade{}, fmt.Errorf("update trade %d: %w", t.ID, err)
	}
	if err := expectRow(res, "trade", t.ID); err != nil {
		return core.Trade{}, err
	}
	t.UpdatedAt = now
	return t, nil
}

func (r *Repository) DeleteTrade(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trade %d: %w", id, err)
	}
	return expectRow(res, "trade", id)
}

func (r *Repository) DeleteTrades(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM stocks WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return fmt.Errorf("delete trades: %w", err)
	}
	return nil
}

func expectRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
