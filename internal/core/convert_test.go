package core

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  BK-1 ", "BK-1"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{"\ufeffcode", "code"},
		{"\u00a0WH1\u00a0", "WH1"},
		{`"quoted"`, "quoted"},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-05", "03/05/2024", "05.03.2024", "Mar 5, 2024", "20240305", "2024-03-05 14:30"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseDate("next tuesday"); err == nil {
		t.Error("ParseDate should reject free text")
	}
}

func TestParseDecimalAndInt(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1,250.50", want: "1250.5"},
		{in: "(12)", want: "-12"},
		{in: "800 kg", want: "800"},
		{in: "12 pal", want: "12"},
		{in: "1e3", want: "1000"},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDecimal(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got.String() != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}

	if n, err := ParseInt("12.0"); err != nil || n != 12 {
		t.Errorf("ParseInt(12.0) = %d, %v", n, err)
	}
	if _, err := ParseInt("12.5"); err == nil {
		t.Error("ParseInt(12.5) should fail")
	}
}

func TestParseInt_Range(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"9223372036854775807", math.MaxInt64, true},
		{"-9223372036854775808", math.MinInt64, true},
		{"9223372036854775808", 0, false},
		{"18446744073709551621", 0, false},
		{"1e21", 0, false},
		{"-18446744073709551621", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInt(tt.in)
			if !tt.ok {
				if err == nil || !strings.Contains(err.Error(), "too large") {
					t.Fatalf("ParseInt(%s) = %d, %v; want too large error", tt.in, got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseInt(%s) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"yes": true, "Ja": true, "x": true, "sí": true, "NO": false, "nein": false, "0": false} {
		got, ok := ParseBool(in)
		if !ok || got != want {
			t.Errorf("ParseBool(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseBool("perhaps"); ok {
		t.Error("ParseBool should reject unknown tokens")
	}
}
