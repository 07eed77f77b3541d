package stockfolio

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestTrade_Validate(t *testing.T) {
	valid := NewBuy(day(time.January, 5), "600519", "Moutai", 100, dec("10"))

	tests := []struct {
		name    string
		trade   Trade
		wantErr string // empty when the trade is valid
	}{
		{"valid buy", valid, ""},
		{"valid sell with commission", NewSell(day(time.January, 6), "600519", "", 10, dec("11")).WithCommission(dec("2")), ""},
		{"missing code", NewBuy(day(time.January, 5), " ", "", 1, dec("1")), "instrument code is missing"},
		{"zero price", NewBuy(day(time.January, 5), "X", "", 1, dec("0")), "price must be positive"},
		{"negative price", NewSell(day(time.January, 5), "X", "", 1, dec("-1")), "price must be positive"},
		{"zero quantity", NewBuy(day(time.January, 5), "X", "", 0, dec("1")), "quantity must be positive"},
		{"negative commission", valid.WithCommission(dec("-0.01")), "commission must not be negative"},
		{"unknown kind", Trade{Kind: "short", Time: day(time.January, 5), Code: "X", Price: dec("1"), Quantity: 1}, "kind must be"},
		{"missing time", NewBuy(time.Time{}, "X", "", 1, dec("1")), "time is missing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.trade.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tc.wantErr)
			}
			if !errors.Is(err, ErrInvalidTrade) {
				t.Errorf("Validate() = %v, want it to wrap ErrInvalidTrade", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestTrade_Validate_ReportsEveryProblem(t *testing.T) {
	err := Trade{Kind: Buy}.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"code", "price", "quantity", "time"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %q, want it to mention %q", err, want)
		}
	}
}

func TestNewTags(t *testing.T) {
	got := NewTags("long", " core ", "", "long", "bank")
	want := Tags{"bank", "core", "long"}
	if !slices.Equal(got, want) {
		t.Errorf("NewTags() = %v, want %v", got, want)
	}
	if !got.Has("core") || got.Has("short") {
		t.Errorf("Has() gives wrong membership for %v", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"buy": Buy, "SELL": Sell, " Buy ": Buy} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("hold"); err == nil {
		t.Error("ParseKind(\"hold\") succeeded, want error")
	}
}

func TestTrade_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		trade Trade
		want  string
	}{
		{
			name:  "date only without commission",
			trade: NewBuy(day(time.January, 5), "600519", "Moutai", 100, dec("10.5")).WithID("t1"),
			want:  `{"id":"t1","kind":"buy","time":"2025-01-05","code":"600519","name":"Moutai","price":10.5,"quantity":100}`,
		},
		{
			name: "full",
			trade: NewSell(time.Date(2025, time.January, 6, 14, 30, 0, 0, time.UTC), "000001", "", 50, dec("12")).
				WithID("t2").WithCommission(dec("2")).WithTags("swing", "bank").WithMemo("take profit"),
			want: `{"id":"t2","kind":"sell","time":"2025-01-06T14:30:00Z","code":"000001","price":12,"quantity":50,"commission":2,"tags":["bank","swing"],"memo":"take profit"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.trade)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("json.Marshal() =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestTrade_UnmarshalJSON(t *testing.T) {
	var got Trade
	input := `{"id":"t1","kind":"BUY","date":"2025-1-5","code":"600519","price":"10.5","quantity":100,"commission":null,"tags":["b","a","a"]}`
	if err := json.Unmarshal([]byte(input), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	want := NewBuy(day(time.January, 5), "600519", "", 100, dec("10.5")).WithID("t1").WithTags("a", "b")
	if !got.Equal(want) {
		t.Errorf("json.Unmarshal() = %+v, want %+v", got, want)
	}
	if !got.Commission.IsZero() {
		t.Errorf("Commission = %v, want 0", got.Commission)
	}
}
