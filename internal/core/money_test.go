package core

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"", "0", true},
		{"0", "0", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e5", "", false},
		{".", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"112.5", "$112.50"},
		{"92.456", "$92.46"},
		{"-20", "-$20.00"},
	}
	for _, tc := range cases {
		if got := FormatMoney(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("FormatMoney(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if got := FormatNullMoney(decimal.NullDecimal{}); got != "-" {
		t.Fatalf("absent amount rendered as %q", got)
	}
	if got := FormatMoneyFloat(192.5); got != "$192.50" {
		t.Fatalf("FormatMoneyFloat = %s", got)
	}
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if got := FormatMoneyFloat(f); got != "-" {
			t.Fatalf("FormatMoneyFloat(%v) = %s", f, got)
		}
	}
}

func TestRoundMoney(t *testing.T) {
	got := RoundMoney(decimal.RequireFromString("10.005"))
	if !got.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("expected half-up rounding, got %s", got)
	}
}
