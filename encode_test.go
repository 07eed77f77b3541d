package stockfolio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeLedger(t *testing.T) {
	jsonlStream := `
{"id":"a","kind":"buy","time":"2025-01-05","code":"600519","name":"Moutai","price":10,"quantity":100,"commission":5}

{"id":"b","kind":"sell","date":"2025-01-06","code":"600519","price":12,"quantity":50,"tags":["swing"]}
{"id":"c","kind":"buy","time":"2025-01-07T09:30:00+08:00","code":"000001","price":"15.2","quantity":200}
`
	ledger, err := DecodeLedger(strings.NewReader(jsonlStream))
	if err != nil {
		t.Fatalf("DecodeLedger() returned an unexpected error: %v", err)
	}
	if ledger.Len() != 3 {
		t.Fatalf("DecodeLedger() decoded %d trades, want 3", ledger.Len())
	}
	b, _ := ledger.Trade("b")
	if b.Kind != Sell || !b.Time.Equal(day(time.January, 6)) || !b.Tags.Has("swing") {
		t.Errorf("trade b = %+v, want a tagged sell on 2025-01-06", b)
	}
	c, _ := ledger.Trade("c")
	if want := time.Date(2025, time.January, 7, 1, 30, 0, 0, time.UTC); !c.Time.Equal(want) {
		t.Errorf("trade c time = %v, want %v", c.Time, want)
	}
}

func TestDecodeLedger_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed json", "{\"id\":\"a\",\"kind\":\"buy\"\n", "line 1"},
		{"invalid trade", `{"id":"a","kind":"buy","time":"2025-01-05","code":"X","price":10,"quantity":1}` + "\n" + `{"id":"b","kind":"buy","time":"2025-01-05","code":"X","price":-1,"quantity":1}`, "line 2"},
		{"duplicate id", `{"id":"a","kind":"buy","time":"2025-01-05","code":"X","price":10,"quantity":1}` + "\n\n" + `{"id":"a","kind":"buy","time":"2025-01-05","code":"X","price":10,"quantity":1}`, "line 3"},
		{"bad time", `{"id":"a","kind":"buy","time":"someday","code":"X","price":10,"quantity":1}`, "line 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeLedger(strings.NewReader(tc.input))
			if err == nil {
				t.Fatalf("DecodeLedger() = nil error, want %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("DecodeLedger() = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}

	_, err := DecodeLedger(strings.NewReader(tests[1].input))
	if !errors.Is(err, ErrInvalidTrade) {
		t.Errorf("DecodeLedger() = %v, want ErrInvalidTrade", err)
	}
}

func TestEncodeLedger(t *testing.T) {
	l := NewLedger()
	// Insertion order is kept, not time order.
	err := l.Add(
		NewBuy(day(time.February, 1), "000001", "", 200, dec("12")).WithID("b"),
		NewBuy(day(time.January, 5), "600519", "Moutai", 100, dec("10")).WithID("a").WithCommission(dec("5")),
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	want := `{"id":"b","kind":"buy","time":"2025-02-01","code":"000001","price":12,"quantity":200}
{"id":"a","kind":"buy","time":"2025-01-05","code":"600519","name":"Moutai","price":10,"quantity":100,"commission":5}
`
	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	if got := buf.String(); got != want {
		t.Errorf("EncodeLedger() =\n%s\nwant\n%s", got, want)
	}

	decoded, err := DecodeLedger(&buf)
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	original, roundtrip := l.Trades(), decoded.Trades()
	if len(original) != len(roundtrip) {
		t.Fatalf("round trip returned %d trades, want %d", len(roundtrip), len(original))
	}
	for i := range original {
		if !original[i].Equal(roundtrip[i]) {
			t.Errorf("trade %d = %+v, want %+v", i, roundtrip[i], original[i])
		}
	}
}

func TestPricesEncoding(t *testing.T) {
	prices := Prices{"600519": dec("1520.5"), "000001": dec("11")}
	var buf bytes.Buffer
	if err := EncodePrices(&buf, prices); err != nil {
		t.Fatalf("EncodePrices() error = %v", err)
	}
	want := "{\n  \"000001\": 11,\n  \"600519\": 1520.5\n}\n"
	if buf.String() != want {
		t.Errorf("EncodePrices() = %q, want %q", buf.String(), want)
	}

	got, err := DecodePrices(&buf)
	if err != nil {
		t.Fatalf("DecodePrices() error = %v", err)
	}
	for code, price := range prices {
		assertKnown(t, code, got.Lookup(code), price)
	}

	if _, err := DecodePrices(strings.NewReader(`{"X": 0}`)); err == nil {
		t.Error("DecodePrices() accepted a zero price")
	}
	if got, err := DecodePrices(strings.NewReader("")); err != nil || len(got) != 0 {
		t.Errorf("DecodePrices(empty) = %v, %v, want empty", got, err)
	}
}

func TestPrices_Merge(t *testing.T) {
	live := Prices{"A": dec("1"), "B": dec("2")}
	manual := Prices{"B": dec("3"), "C": dec("4")}
	got := live.Merge(manual)
	assertKnown(t, "A", got.Lookup("A"), dec("1"))
	assertKnown(t, "B", got.Lookup("B"), dec("3"))
	assertKnown(t, "C", got.Lookup("C"), dec("4"))
	assertUnknown(t, "D", got.Lookup("D"))
	if live["B"].Equal(dec("3")) {
		t.Error("Merge() modified its receiver")
	}
}
