package core

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-01", "2024-01", false},
		{"1999-12", "1999-12", false},
		{"2024-1", "", true},
		{"2024-13", "", true},
		{"24-01", "", true},
		{"2024/01", "", true},
		{"", "", true},
		{"2024-01-05", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMonth(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("ParseMonth(%q) error = %v, want ErrInvalidArgument", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) unexpected error: %v", tt.in, err)
			}
			if m.String() != tt.want {
				t.Errorf("ParseMonth(%q) = %s, want %s", tt.in, m, tt.want)
			}
		})
	}
}

func TestMonth_StringOrderIsChronological(t *testing.T) {
	keys := []Month{
		MustParseMonth("2024-11"), MustParseMonth("2023-02"), MustParseMonth("2024-02"),
		MustParseMonth("2024-10"), MustParseMonth("1998-07"),
	}
	strs := make([]string, len(keys))
	for i, k := range keys {
		strs[i] = k.String()
	}
	sort.Strings(strs)
	SortMonths(keys)
	for i := range keys {
		if keys[i].String() != strs[i] {
			t.Fatalf("position %d: chronological %s, lexical %s", i, keys[i], strs[i])
		}
	}
}

func TestMonth_AddMonths(t *testing.T) {
	m := MustParseMonth("2024-01")
	if got := m.AddMonths(-1).String(); got != "2023-12" {
		t.Errorf("AddMonths(-1) = %s, want 2023-12", got)
	}
	if got := m.AddMonths(13).String(); got != "2025-02" {
		t.Errorf("AddMonths(13) = %s, want 2025-02", got)
	}
	trail := TrailingMonths(m, 3)
	if len(trail) != 3 || trail[0].String() != "2023-11" || trail[2] != m {
		t.Errorf("TrailingMonths = %v", trail)
	}
}

func TestIsEditable(t *testing.T) {
	asOf := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		month string
		want  bool
	}{
		{"2024-05", true},
		{"2024-04", true},
		{"2024-03", true},
		{"2024-02", false},
		{"2023-12", false},
		{"2024-06", false},
		{"2025-05", false},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			got, err := IsEditable(tt.month, asOf)
			if err != nil {
				t.Fatalf("IsEditable(%q) error: %v", tt.month, err)
			}
			if got != tt.want {
				t.Errorf("IsEditable(%q, %s) = %v, want %v", tt.month, asOf.Format(DateLayout), got, tt.want)
			}
		})
	}
}

func TestIsEditable_ReflexiveAndMonotonic(t *testing.T) {
	start := time.Date(2020, 1, 31, 23, 59, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		asOf := start.AddDate(0, 0, i*17)
		cur := MonthOf(asOf)
		if !MustIsEditable(cur.String(), asOf) {
			t.Fatalf("current month %s not editable as of %s", cur, asOf)
		}
		for back := 3; back < 30; back++ {
			if MonthEditable(cur.AddMonths(-back), asOf) {
				t.Fatalf("%s editable %d months back of %s", cur.AddMonths(-back), back, cur)
			}
		}
	}
}

func TestIsEditable_MalformedFailsLoudly(t *testing.T) {
	if _, err := IsEditable("May 2024", time.Now()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("IsEditable(malformed) error = %v, want ErrInvalidArgument", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("MustIsEditable(malformed) did not panic")
		}
	}()
	MustIsEditable("2024-5", time.Now())
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-01-05","e":null}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.D.String() != "2024-01-05" || !v.E.IsZero() {
		t.Fatalf("got d=%s e=%v", v.D, v.E)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"d":"2024-01-05","e":null}` {
		t.Errorf("Marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`{"d":"05/01/2024"}`), &v); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Unmarshal(bad date) error = %v, want ErrInvalidDate", err)
	}
}

func TestMonth_MapKeyJSON(t *testing.T) {
	in := map[Month]int{MustParseMonth("2024-02"): 2, MustParseMonth("2024-01"): 1}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"2024-01":1,"2024-02":2}` {
		t.Errorf("Marshal = %s", b)
	}
	var out map[Month]int
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out[MustParseMonth("2024-02")] != 2 {
		t.Errorf("round trip lost key: %v", out)
	}
}
