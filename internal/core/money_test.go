package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

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
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1e30", 0, false},
		{"1000000000000", 100000000000000, true},
		{"1000000000000.01", 0, false},
		{"1e20", 0, false},
		{"1e999999999", 0, false},
		{"1e-999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseDecimalToCents_NegativeIsTyped(t *testing.T) {
	if _, err := ParseDecimalToCents("-5"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("ParseDecimalToCents(-5) error = %v, want ErrNegativeAmount", err)
	}
}

func TestParseDecimalToCents_HugeExponentReturnsPromptly(t *testing.T) {
	for _, in := range []string{"1e999999999", "1e-999999999", "9e2147483647"} {
		done := make(chan error, 1)
		go func() {
			_, err := ParseDecimalToCents(in)
			done <- err
		}()
		select {
		case err := <-done:
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", in, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("ParseDecimalToCents(%q) did not return within 1s", in)
		}
	}
}

func TestMoney_MaxAmountKeepsSumsNonNegative(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`92233720368547758.07`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Unmarshal(int64 max cents) error = %v, want ErrInvalidAmount", err)
	}
	if err := json.Unmarshal([]byte(`"1e999999999"`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Unmarshal(1e999999999) error = %v, want ErrInvalidAmount", err)
	}

	var total Money
	for i := 0; i < 1000; i++ {
		total = total.Add(MaxAmount)
	}
	if total.Cents <= 0 {
		t.Errorf("sum of 1000 x MaxAmount = %s, want positive", total)
	}
}

func TestMoney_JSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"integer", `100`, 10000, false},
		{"fraction", `12.5`, 1250, false},
		{"string", `"7.25"`, 725, false},
		{"negative decodes", `-5`, -500, false},
		{"garbage", `"abc"`, 0, true},
		{"empty string", `""`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := json.Unmarshal([]byte(tt.in), &m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && m.Cents != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, m.Cents, tt.want)
			}
		})
	}

	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{Money{Cents: -2550}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"a":-25.50}` {
		t.Errorf("Marshal = %s, want {\"a\":-25.50}", b)
	}
}

func TestMoney_RepeatedSummationDoesNotDrift(t *testing.T) {
	var total Money
	tenth, _ := ParseMoney("0.10")
	for i := 0; i < 1000; i++ {
		total = total.Add(tenth)
	}
	if total.Cents != 10000 {
		t.Fatalf("sum of 1000 x 0.10 = %s, want 100.00", total)
	}
}

func TestParseRate(t *testing.T) {
	if r, err := ParseRate(""); err != nil || !r.IsZero() {
		t.Errorf("ParseRate(\"\") = %v, %v; want zero", r, err)
	}
	if r, err := ParseRate("12.5"); err != nil || r.String() != "12.5" {
		t.Errorf("ParseRate(12.5) = %v, %v", r, err)
	}
	if _, err := ParseRate("-1"); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("ParseRate(-1) error = %v, want ErrInvalidRate", err)
	}
	if _, err := ParseRate("5e999999999"); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("ParseRate(5e999999999) error = %v, want ErrInvalidRate", err)
	}
	var r Rate
	if err := json.Unmarshal([]byte(`1e-999999999`), &r); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("Unmarshal rate 1e-999999999 error = %v, want ErrInvalidRate", err)
	}
}
