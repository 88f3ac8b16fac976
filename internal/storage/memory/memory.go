// Package memory is an in-process gateway used for local development and
// tests. Records live only as long as the process.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bankroll/internal/core"
	"bankroll/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	bets   []core.Bet
	trades []core.Trade
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// NewWithClock returns an empty store stamping records with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

// NewFromFiles seeds the store from bets.json and stocks.json in base.
// Missing files leave the corresponding table empty.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	var bets []core.Bet
	if err := readJSON(filepath.Join(base, "bets.json"), &bets); err != nil {
		return nil, err
	}
	var trades []core.Trade
	if err := readJSON(filepath.Join(base, "stocks.json"), &trades); err != nil {
		return nil, err
	}
	for _, b := range bets {
		s.bets = append(s.bets, s.stampBet(b))
	}
	for _, t := range trades {
		s.trades = append(s.trades, s.stampTrade(t))
	}
	return s, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode seed %s: %w", path, err)
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// stampBet assigns an id and timestamps. Callers hold mu or own s exclusively.
func (s *Store) stampBet(b core.Bet) core.Bet {
	s.nextID++
	if b.ID == 0 || b.ID < s.nextID {
		b.ID = s.nextID
	} else {
		s.nextID = b.ID
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	return b
}

func (s *Store) stampTrade(t core.Trade) core.Trade {
	s.nextID++
	if t.ID == 0 || t.ID < s.nextID {
		t.ID = s.nextID
	} else {
		s.nextID = t.ID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return t
}

func (s *Store) ListBets(context.Context) ([]core.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Bet(nil), s.bets...)
	storage.SortBetsNewestFirst(out)
	return out, nil
}

func (s *Store) CreateBet(_ context.Context, b core.Bet) (core.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = 0
	b.CreatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
	b = s.stampBet(b)
	s.bets = append(s.bets, b)
	return b, nil
}

func (s *Store) UpdateBet(_ context.Context, b core.Bet) (core.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bets {
		if s.bets[i].ID != b.ID {
			continue
		}
		b.CreatedAt = s.bets[i].CreatedAt
		b.UpdatedAt = s.now()
		s.bets[i] = b
		return b, nil
	}
	return core.Bet{}, fmt.Errorf("bet %d: %w", b.ID, core.ErrNotFound)
}

func (s *Store) SetBetResults(_ context.Context, ids []int64, result core.BetResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := storage.IDSet(ids)
	now := s.now()
	for i := range s.bets {
		if _, ok := set[s.bets[i].ID]; ok {
			s.bets[i].Result = result
			s.bets[i].UpdatedAt = now
		}
	}
	return nil
}

func (s *Store) DeleteBet(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bets {
		if s.bets[i].ID == id {
			s.bets = append(s.bets[:i], s.bets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bet %d: %w", id, core.ErrNotFound)
}

func (s *Store) ListTrades(context.Context) ([]core.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Trade(nil), s.trades...)
	storage.SortTradesNewestFirst(out)
	return out, nil
}

func (s *Store) CreateTrade(_ context.Context, t core.Trade) (core.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = 0
	t.CreatedAt = time.Time{}
	t.UpdatedAt = time.Time{}
	t = s.stampTrade(t)
	s.trades = append(s.trades, t)
	return t, nil
}

func (s *Store) UpdateTrade(_ context.Context, t core.Trade) (core.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.trades {
		if s.trades[i].ID != t.ID {
			continue
		}
		t.CreatedAt = s.trades[i].CreatedAt
		t.UpdatedAt = s.now()
		s.trades[i] = t
		return t, nil
	}
	return core.Trade{}, fmt.Errorf("trade %d: %w", t.ID, core.ErrNotFound)
}

func (s *Store) DeleteTrade(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.trades {
		if s.trades[i].ID == id {
			s.trades = append(s.trades[:i], s.trades[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("trade %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteTrades(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := storage.IDSet(ids)
	kept := s.trades[:0]
	for _, t := range s.trades {
		if _, ok := set[t.ID]; !ok {
			kept = append(kept, t)
		}
	}
	s.trades = kept
	return nil
}
