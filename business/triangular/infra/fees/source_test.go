package fees

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestRatesStaticWithoutScheduleURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultMaker = fixedpoint.MustFromString("0.0005")
	cfg.DefaultTaker = fixedpoint.MustFromString("0.0015")

	source, err := NewSource(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	rates, err := source.Rates(context.Background(), "binance")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !rates.Maker.Equal(cfg.DefaultMaker) || !rates.Taker.Equal(cfg.DefaultTaker) {
		t.Errorf("rates = %s/%s, want the static defaults", rates.Maker, rates.Taker)
	}
}

func TestRatesFetchesAndCachesSchedule(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		if r.URL.Path != "/fees/schedule" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("exchange"); got != "binance" {
			t.Errorf("exchange = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(scheduleResponse{
			Exchange: "binance",
			Maker:    "0.0008",
			Taker:    "0.0012",
		})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ScheduleURL = server.URL

	source, err := NewSource(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	ctx := context.Background()

	rates, err := source.Rates(ctx, "binance")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !rates.Maker.Equal(fixedpoint.MustFromString("0.0008")) {
		t.Errorf("Maker = %s, want 0.0008", rates.Maker)
	}
	if !rates.Taker.Equal(fixedpoint.MustFromString("0.0012")) {
		t.Errorf("Taker = %s, want 0.0012", rates.Taker)
	}

	// A second lookup within the refresh interval hits the cache.
	if _, err := source.Rates(ctx, "binance"); err != nil {
		t.Fatalf("cached Rates: %v", err)
	}
	if requestCount != 1 {
		t.Errorf("requests = %d, want 1", requestCount)
	}
}

func TestRatesFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ScheduleURL = server.URL

	source, err := NewSource(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	rates, err := source.Rates(context.Background(), "binance")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !rates.Taker.Equal(cfg.DefaultTaker) {
		t.Errorf("Taker = %s, want static fallback %s", rates.Taker, cfg.DefaultTaker)
	}
}

func TestRatesFallsBackOnMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(scheduleResponse{
			Exchange: "binance",
			Maker:    "not-a-rate",
			Taker:    "0.001",
		})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ScheduleURL = server.URL

	source, err := NewSource(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	rates, err := source.Rates(context.Background(), "binance")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !rates.Maker.Equal(cfg.DefaultMaker) {
		t.Errorf("Maker = %s, want static fallback", rates.Maker)
	}
}
