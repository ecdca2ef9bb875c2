package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".50", 50, true},
		{"1.2", 120, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("case %d (%q): expected ok, got %v", i, tc.in, err)
			}
			if got != tc.out {
				t.Fatalf("case %d (%q): expected %d, got %d", i, tc.in, tc.out, got)
			}
			continue
		}
		if err == nil {
			t.Fatalf("case %d (%q): expected error, got %d", i, tc.in, got)
		}
	}
}

func TestParseDecimalToCentsOverflow(t *testing.T) {
	if _, err := ParseDecimalToCents("99999999999999999999"); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{100, "1.00"},
		{1234, "12.34"},
		{-1234, "-12.34"},
		{1205, "12.05"},
	}
	for i, tc := range cases {
		if got := FormatCents(tc.in); got != tc.out {
			t.Fatalf("case %d: expected %q, got %q", i, tc.out, got)
		}
	}
}
