// Package rest is the gateway for a managed Postgres exposed over a
// PostgREST interface (Supabase): a project URL plus an anonymous key.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"bankroll/internal/core"
	"bankroll/internal/storage"
)

const (
	betsTable   = "bets"
	tradesTable = "stocks"

	defaultTimeout = 10 * time.Second

	returnRows    = "representation"
	returnNothing = "minimal"
)

var newestFirst = []string{"created_at", "id"}

type Client struct {
	db      *postgrest.Client
	timeout time.Duration
	now     func() time.Time
}

// New returns a client for the project at projectURL. Requests go to the
// project's /rest/v1 endpoint authenticated with apiKey.
func New(projectURL, apiKey string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(projectURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid project URL %q", projectURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	db := postgrest.NewClient(u.JoinPath("rest", "v1").String(), "public", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	if db.ClientError != nil {
		return nil, fmt.Errorf("postgrest client: %w", db.ClientError)
	}
	return &Client{db: db, timeout: defaultTimeout, now: time.Now}, nil
}

// run executes a built request and decodes the JSON array it returns into
// out when out is non-nil.
func (c *Client) run(ctx context.Context, op, table string, q *postgrest.FilterBuilder, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, _, err := q.ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	var rows []struct{}
	q := c.db.From(betsTable).Select("id", "", false).Limit(1, "")
	return c.run(ctx, "ping", betsTable, q, &rows)
}

func (c *Client) list(table string) *postgrest.FilterBuilder {
	q := c.db.From(table).Select("*", "", false)
	for _, col := range newestFirst {
		q = q.Order(col, &postgrest.OrderOpts{Ascending: false})
	}
	return q
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func idStrings(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idString(id)
	}
	return out
}

func (c *Client) stamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}

func betRow(b core.Bet) map[string]any {
	return map[string]any{
		"team_or_player":   b.Pick,
		"sportsbook":       b.Sportsbook,
		"result":           b.Result,
		"stake":            b.Stake,
		"odds":             b.Odds,
		"bet_date":         b.BetDate,
		"potential_payout": b.PotentialPayout,
	}
}

func (c *Client) ListBets(ctx context.Context) ([]core.Bet, error) {
	var bets []core.Bet
	if err := c.run(ctx, "list", betsTable, c.list(betsTable), &bets); err != nil {
		return nil, err
	}
	return bets, nil
}

func (c *Client) CreateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	var rows []core.Bet
	q := c.db.From(betsTable).Insert(betRow(b), false, "", returnRows, "")
	if err := c.run(ctx, "insert", betsTable, q, &rows); err != nil {
		return core.Bet{}, err
	}
	if len(rows) == 0 {
		return core.Bet{}, fmt.Errorf("insert bet: empty response")
	}
	return rows[0], nil
}

func (c *Client) UpdateBet(ctx context.Context, b core.Bet) (core.Bet, error) {
	row := betRow(b)
	row["updated_at"] = c.stamp()
	var rows []core.Bet
	q := c.db.From(betsTable).Update(row, returnRows, "").Eq("id", idString(b.ID))
	if err := c.run(ctx, "update", betsTable, q, &rows); err != nil {
		return core.Bet{}, err
	}
	if len(rows) == 0 {
		return core.Bet{}, fmt.Errorf("bet %d: %w", b.ID, core.ErrNotFound)
	}
	return rows[0], nil
}

func (c *Client) SetBetResults(ctx context.Context, ids []int64, result core.BetResult) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"result": result, "updated_at": c.stamp()}
	q := c.db.From(betsTable).Update(body, returnNothing, "").In("id", idStrings(ids))
	return c.run(ctx, "update", betsTable, q, nil)
}

func (c *Client) DeleteBet(ctx context.Context, id int64) error {
	var rows []struct {
		ID int64 `json:"id"`
	}
	q := c.db.From(betsTable).Delete(returnRows, "").Eq("id", idString(id))
	if err := c.run(ctx, "delete", betsTable, q, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("bet %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func tradeRow(t core.Trade) map[string]any {
	return map[string]any{
		"symbol":                 t.Symbol,
		"company_name":           t.CompanyName,
		"trade_type":             t.Type,
		"quantity":               t.Quantity,
		"buy_price":              t.BuyPrice,
		"sell_price":             t.SellPrice,
		"buy_total":              t.BuyTotal,
		"sell_total":             t.SellTotal,
		"profit_loss":            t.ProfitLoss,
		"profit_loss_percentage": t.ProfitLossPct,
		"trade_date":             t.TradeDate,
		"buy_time":               optional(t.BuyTime),
		"sell_time":              optional(t.SellTime),
		"notes":                  t.Notes,
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// trimTimes cuts TIME columns returned as HH:MM:SS down to HH:MM.
func trimTimes(trades []core.Trade) {
	for i := range trades {
		trades[i].BuyTime = trimTime(trades[i].BuyTime)
		trades[i].SellTime = trimTime(trades[i].SellTime)
	}
}

func trimTime(s string) string {
	if len(s) > len(core.TimeLayout) {
		return s[:len(core.TimeLayout)]
	}
	return s
}

func (c *Client) ListTrades(ctx context.Context) ([]core.Trade, error) {
	var trades []core.Trade
	if err := c.run(ctx, "list", tradesTable, c.list(tradesTable), &trades); err != nil {
		return nil, err
	}
	trimTimes(trades)
	return trades, nil
}

func (c *Client) CreateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	var rows []core.Trade
	q := c.db.From(tradesTable).Insert(tradeRow(t), false, "", returnRows, "")
	if err := c.run(ctx, "insert", tradesTable, q, &rows); err != nil {
		return core.Trade{}, err
	}
	if len(rows) == 0 {
		return core.Trade{}, fmt.Errorf("insert trade: empty response")
	}
	trimTimes(rows)
	return rows[0], nil
}

func (c *Client) UpdateTrade(ctx context.Context, t core.Trade) (core.Trade, error) {
	row := tradeRow(t)
	row["updated_at"] = c.stamp()
	var rows []core.Trade
	q := c.db.From(tradesTable).Update(row, returnRows, "").Eq("id", idString(t.ID))
	if err := c.run(ctx, "update", tradesTable, q, &rows); err != nil {
		return core.Trade{}, err
	}
	if len(rows) == 0 {
		return core.Trade{}, fmt.Errorf("trade %d: %w", t.ID, core.ErrNotFound)
	}
	trimTimes(rows)
	return rows[0], nil
}

func (c *Client) DeleteTrade(ctx context.Context, id int64) error {
	var rows []struct {
		ID int64 `json:"id"`
	}
	q := c.db.From(tradesTable).Delete(returnRows, "").Eq("id", idString(id))
	if err := c.run(ctx, "delete", tradesTable, q, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("trade %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *Client) DeleteTrades(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	q := c.db.From(tradesTable).Delete(returnNothing, "").In("id", idStrings(ids))
	return c.run(ctx, "delete", tradesTable, q, nil)
}

var _ storage.Gateway = (*Client)(nil)
