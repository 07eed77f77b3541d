package stockfolio

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/etnz/stockfolio/date"
)

// testLedger returns a ledger with three trades on two instruments.
func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger()
	err := l.Add(
		NewBuy(day(time.January, 5), "600519", "Moutai", 100, dec("10")).WithID("a").WithTags("core"),
		NewBuy(day(time.February, 1), "000001", "Ping An", 200, dec("12")).WithID("b"),
		NewSell(day(time.March, 3), "600519", "Moutai", 50, dec("12")).WithID("c").WithTags("core", "swing"),
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return l
}

func ids(trades []Trade) []string {
	var ids []string
	for _, t := range trades {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestLedger_Add(t *testing.T) {
	l := testLedger(t)
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	t.Run("assigns missing ids", func(t *testing.T) {
		if err := l.Add(NewBuy(day(time.April, 1), "X", "", 1, dec("1"))); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		trades := l.Trades()
		if last := trades[len(trades)-1]; last.ID == "" {
			t.Error("Add() kept an empty id")
		}
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		err := l.Add(NewBuy(day(time.April, 1), "X", "", 1, dec("1")).WithID("a"))
		if !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Add() = %v, want ErrDuplicateID", err)
		}
	})

	t.Run("all or nothing", func(t *testing.T) {
		before := l.Len()
		err := l.Add(
			NewBuy(day(time.April, 2), "Y", "", 1, dec("1")),
			NewBuy(day(time.April, 2), "Y", "", 0, dec("1")),
		)
		if !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("Add() = %v, want ErrInvalidTrade", err)
		}
		if l.Len() != before {
			t.Errorf("Len() = %d after failed Add, want %d", l.Len(), before)
		}
	})

	t.Run("zero value ledger", func(t *testing.T) {
		var l Ledger
		if err := l.Add(NewBuy(day(time.April, 2), "Y", "", 1, dec("1"))); err != nil {
			t.Errorf("Add() error = %v", err)
		}
	})
}

func TestLedger_Replace(t *testing.T) {
	l := testLedger(t)
	edited := NewBuy(day(time.January, 5), "600519", "Kweichow Moutai", 120, dec("9.5")).WithID("a")
	if err := l.Replace(edited); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, ok := l.Trade("a")
	if !ok || !got.Equal(edited) {
		t.Errorf("Trade(a) = %+v, want %+v", got, edited)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(ids(l.Trades()), want) {
		t.Errorf("Replace() changed the order to %v, want %v", ids(l.Trades()), want)
	}

	if err := l.Replace(edited.WithID("zz")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace(unknown) = %v, want ErrNotFound", err)
	}
	if err := l.Replace(edited.WithCommission(dec("-1"))); !errors.Is(err, ErrInvalidTrade) {
		t.Errorf("Replace(invalid) = %v, want ErrInvalidTrade", err)
	}
}

func TestLedger_Delete(t *testing.T) {
	l := testLedger(t)
	if err := l.Delete("b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := l.Delete("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice = %v, want ErrNotFound", err)
	}
	if _, ok := l.Trade("c"); !ok {
		t.Error("Trade(c) not found after deleting b")
	}

	l = testLedger(t)
	if n := l.DeleteAll("a", "c", "unknown"); n != 2 {
		t.Errorf("DeleteAll() = %d, want 2", n)
	}
	if want := []string{"b"}; !slices.Equal(ids(l.Trades()), want) {
		t.Errorf("Trades() = %v, want %v", ids(l.Trades()), want)
	}
}

func TestLedger_Trades(t *testing.T) {
	l := testLedger(t)
	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{"all", nil, []string{"a", "b", "c"}},
		{"by code", []Filter{ByCode("600519")}, []string{"a", "c"}},
		{"by tag", []Filter{ByTag("swing")}, []string{"c"}},
		{"by kind", []Filter{ByKind(Buy)}, []string{"a", "b"}},
		{"by ids", []Filter{ByIDs("c", "a")}, []string{"a", "c"}},
		{"in range", []Filter{InRange(date.Range{From: date.New(2025, time.February, 1), To: date.New(2025, time.March, 31)})}, []string{"b", "c"}},
		{"combined", []Filter{ByCode("600519"), ByKind(Sell)}, []string{"c"}},
		{"none", []Filter{ByCode("unknown")}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ids(l.Trades(tc.filters...)); !slices.Equal(got, tc.want) {
				t.Errorf("Trades() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLedger_Codes(t *testing.T) {
	l := testLedger(t)
	if got, want := l.Codes(), []string{"000001", "600519"}; !slices.Equal(got, want) {
		t.Errorf("Codes() = %v, want %v", got, want)
	}
	if got := l.Names()["000001"]; got != "Ping An" {
		t.Errorf("Names()[000001] = %q, want %q", got, "Ping An")
	}
}
