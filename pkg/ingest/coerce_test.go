package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecimalCoercion(t *testing.T) {
	cases := map[string]string{
		"$1,234.50": "1234.5",
		"  42 ":     "42",
		"(10.25)":   "-10.25",
		"abc":       "0",
		"":          "0",
		"12.345":    "12.35",
		"1.5E+3":    "1500",
	}
	for in, want := range cases {
		got := Decimal(in)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("Decimal(%q) = %s want %s", in, got, want)
		}
	}
}

func TestIntegerTruncates(t *testing.T) {
	if got := Integer("3.9"); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
	if got := Integer("n/a"); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
}

func TestIntegerOutOfRangeIsZero(t *testing.T) {
	for _, in := range []string{"1e30", "-1e30", "99999999999999999999", "2147483648"} {
		if got := Integer(in); got != 0 {
			t.Fatalf("Integer(%q) = %d, want 0", in, got)
		}
	}
	if got := Integer("2,147,483,647"); got != 2147483647 {
		t.Fatalf("expected max int32 got %d", got)
	}
	if got := Integer("-12.7"); got != -12 {
		t.Fatalf("expected -12 got %d", got)
	}
}

func TestDateParsing(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"45306", "2024-01-15", "01/15/2024", "2024/01/15", "Jan 15, 2024"} {
		got := Date(in)
		if got == nil || !got.Equal(want) {
			t.Fatalf("Date(%q) = %v want %v", in, got, want)
		}
	}
	for _, in := range []string{"", "garbage", "-3", "31/31/2024"} {
		if got := Date(in); got != nil {
			t.Fatalf("Date(%q) expected nil got %v", in, got)
		}
	}
}

func TestParseFormType(t *testing.T) {
	for _, f := range Forms {
		got, err := ParseFormType(string(f))
		if err != nil || got != f {
			t.Fatalf("ParseFormType(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormType("payroll"); err == nil {
		t.Fatalf("expected error for unknown form")
	}
}
