package storage

import (
	"sort"
	"time"

	"bankroll/internal/core"
)

// TimestampLayout is the fixed-width UTC layout used where timestamps are
// stored as text, so lexical order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// SortBetsNewestFirst orders bets by created_at descending, ties by id.
func SortBetsNewestFirst(bets []core.Bet) {
	sort.SliceStable(bets, func(i, j int) bool {
		return newer(bets[i].CreatedAt, bets[j].CreatedAt, bets[i].ID, bets[j].ID)
	})
}

// SortTradesNewestFirst orders trades by created_at descending, ties by id.
func SortTradesNewestFirst(trades []core.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return newer(trades[i].CreatedAt, trades[j].CreatedAt, trades[i].ID, trades[j].ID)
	})
}

func newer(a, b time.Time, idA, idB int64) bool {
	if a.Equal(b) {
		return idA > idB
	}
	return a.After(b)
}

// IDSet builds a lookup set from a list of ids.
func IDSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// FormatTimestamp renders t with TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses text timestamps written by FormatTimestamp and
// RFC 3339 values written by other tools.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
