package money

import "testing"

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"10", 1000, false},
		{"10.5", 1050, false},
		{"10.50", 1050, false},
		{"0.01", 1, false},
		{"-3.25", -325, false},
		{"10.505", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseMinor(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMinor(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(1050); got != "10.50" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatMinor(-5); got != "-0.05" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestCentsToEUR(t *testing.T) {
	if got := CentsToEUR(37000); got != "370.00" {
		t.Fatalf("unexpected eur: %s", got)
	}
	if got := CentsToEUR(9680); got != "96.80" {
		t.Fatalf("unexpected eur: %s", got)
	}
}
