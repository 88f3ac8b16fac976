// Package memory keeps spreadsheet tabs in process. The export worker uses
// it when no spreadsheet is configured, and tests use it to inspect writes.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "bankroll/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes map[string]int
	fail   error
}

var _ ports.TabWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string][][]any{}, writes: map[string]int{}}
}

// FailWith makes every following write return err; nil restores writes.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// ReplaceTab stores a copy of rows as the content of sheet.
func (s *Store) ReplaceTab(_ context.Context, sheet string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return fmt.Errorf("write %s: %w", sheet, s.fail)
	}
	copied := make([][]any, len(rows))
	for i, r := range rows {
		copied[i] = append([]any(nil), r...)
	}
	s.tabs[sheet] = copied
	s.writes[sheet]++
	return nil
}

// Tab returns the current rows of sheet.
func (s *Store) Tab(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs[sheet]
}

// Writes returns how many times sheet was rewritten.
func (s *Store) Writes(sheet string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[sheet]
}
