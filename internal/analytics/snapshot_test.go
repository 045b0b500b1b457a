package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"marketpulse-go/internal/market"
	"marketpulse-go/internal/panel"
)

func seriesBars(ticker string, closes []float64) []market.Bar {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Ticker: ticker, Date: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func linearCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return closes
}

func constantCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func TestSnapshotNotFound(t *testing.T) {
	b := NewSnapshotBuilder(panel.New(nil))
	_, err := b.Build("AAPL")
	if !errors.Is(err, market.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotTrailingReturns(t *testing.T) {
	closes := linearCloses(70)
	b := NewSnapshotBuilder(panel.New(seriesBars("AAPL", closes)))

	snap, err := b.Build("aapl")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if snap.Ticker != "AAPL" {
		t.Fatalf("expected normalized ticker, got %s", snap.Ticker)
	}

	want1M := closes[69]/closes[48] - 1
	if !snap.Ret1M.Valid || snap.Ret1M.Float64 != want1M {
		t.Fatalf("ret_1m = %+v, want %.6f", snap.Ret1M, want1M)
	}
	want3M := closes[69]/closes[6] - 1
	if !snap.Ret3M.Valid || snap.Ret3M.Float64 != want3M {
		t.Fatalf("ret_3m = %+v, want %.6f", snap.Ret3M, want3M)
	}
}

func TestSnapshotShortHistoryIsNull(t *testing.T) {
	b := NewSnapshotBuilder(panel.New(seriesBars("AAPL", linearCloses(10))))

	snap, err := b.Build("AAPL")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if snap.Ret1M.Valid {
		t.Fatalf("ret_1m should be null with 10 observations")
	}
	if snap.Ret3M.Valid {
		t.Fatalf("ret_3m should be null with 10 observations")
	}
	if snap.Vol20D.Valid {
		t.Fatalf("vol should be null with 10 observations")
	}
	if !snap.High52W.Valid || !snap.Low52W.Valid {
		t.Fatalf("52w range should exist for any non-empty series")
	}
}

func TestSnapshotVolNullBoundary(t *testing.T) {
	// Exactly 20 observations in the trailing window: still null.
	b := NewSnapshotBuilder(panel.New(seriesBars("AAPL", linearCloses(20))))
	snap, _ := b.Build("AAPL")
	if snap.Vol20D.Valid {
		t.Fatalf("vol should be null with a 20-observation window")
	}

	// One more observation makes it defined and non-negative.
	b = NewSnapshotBuilder(panel.New(seriesBars("AAPL", linearCloses(21))))
	snap, _ = b.Build("AAPL")
	if !snap.Vol20D.Valid || snap.Vol20D.Float64 < 0 {
		t.Fatalf("vol should be defined and non-negative, got %+v", snap.Vol20D)
	}
}

func TestSnapshot52WeekRange(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 50*math.Sin(float64(i)/7)
	}
	b := NewSnapshotBuilder(panel.New(seriesBars("AAPL", closes)))
	snap, _ := b.Build("AAPL")

	if !snap.High52W.Valid || !snap.Low52W.Valid {
		t.Fatalf("52w range should be defined")
	}
	if snap.High52W.Float64 < snap.Low52W.Float64 {
		t.Fatalf("high %.2f below low %.2f", snap.High52W.Float64, snap.Low52W.Float64)
	}
	// Both bounds must be actual closes from the trailing 252 window.
	window := closes[len(closes)-252:]
	foundHigh, foundLow := false, false
	for _, c := range window {
		if c == snap.High52W.Float64 {
			foundHigh = true
		}
		if c == snap.Low52W.Float64 {
			foundLow = true
		}
	}
	if !foundHigh || !foundLow {
		t.Fatalf("range bounds not found in trailing window")
	}
}

func TestSnapshotConstantSeries(t *testing.T) {
	b := NewSnapshotBuilder(panel.New(seriesBars("ABC", constantCloses(300, 100))))
	snap, err := b.Build("ABC")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !snap.Ret1M.Valid || snap.Ret1M.Float64 != 0 {
		t.Fatalf("constant series should have ret_1m 0, got %+v", snap.Ret1M)
	}
	if !snap.Vol20D.Valid || snap.Vol20D.Float64 != 0 {
		t.Fatalf("constant series should have vol 0, got %+v", snap.Vol20D)
	}
	if snap.LastPrice != 100 {
		t.Fatalf("unexpected last price %.2f", snap.LastPrice)
	}
}
