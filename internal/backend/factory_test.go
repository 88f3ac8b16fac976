package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"bankroll/internal/config"
	"bankroll/internal/log"
	"bankroll/internal/storage/memory"
	"bankroll/internal/storage/rest"
	"bankroll/internal/storage/sqlite"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:     "supabase",
		SupabaseURL:     "https://abc.supabase.co",
		SupabaseAnonKey: "key",
		MemorySeedDir:   "seed",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SupabaseBackend || got.SupabaseURL != cfg.SupabaseURL || got.DataDirectory != "seed" {
		t.Fatalf("unexpected config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected an error for a nil config")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"supabase without key", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co"}, true},
		{"supabase", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "k"}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(quietLogger())

	t.Run("memory with seed files", func(t *testing.T) {
		dir := t.TempDir()
		seed := `[{"team_or_player":"Lakers ML","sportsbook":"FanDuel","result":"won","stake":"10","odds":"2","bet_date":"2025-09-01","potential_payout":"20"}]`
		if err := os.WriteFile(filepath.Join(dir, "bets.json"), []byte(seed), 0o644); err != nil {
			t.Fatal(err)
		}
		res, err := factory.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Cleanup()
		if _, ok := res.Gateway.(*memory.Store); !ok {
			t.Fatalf("gateway is %T", res.Gateway)
		}
		bets, err := res.Gateway.ListBets(ctx)
		if err != nil || len(bets) != 1 {
			t.Fatalf("ListBets() = %d bets, %v", len(bets), err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db", "bankroll.db")
		res, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Cleanup()
		if _, ok := res.Gateway.(*sqlite.Repository); !ok {
			t.Fatalf("gateway is %T", res.Gateway)
		}
		if err := res.Gateway.Ping(ctx); err != nil {
			t.Fatalf("Ping() error = %v", err)
		}
	})

	t.Run("supabase", func(t *testing.T) {
		res, err := factory.CreateBackend(ctx, Config{
			Type:            SupabaseBackend,
			SupabaseURL:     config.PlaceholderSupabaseURL,
			SupabaseAnonKey: config.PlaceholderSupabaseKey,
		})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		if _, ok := res.Gateway.(*rest.Client); !ok {
			t.Fatalf("gateway is %T", res.Gateway)
		}
		if err := res.Cleanup(); err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := factory.CreateBackend(ctx, Config{Type: PostgresBackend}); err == nil {
			t.Fatal("expected an error without a database URL")
		}
	})
}
