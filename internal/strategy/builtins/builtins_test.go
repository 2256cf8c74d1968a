package builtins

import (
	"math"
	"reflect"
	"testing"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/strategy"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func mkBars(closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "ETHUSD",
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Close:     c,
		}
	}
	return bars
}

func actions(signals []domain.Signal) []domain.Action {
	out := make([]domain.Action, len(signals))
	for i, s := range signals {
		out[i] = s.Action
	}
	return out
}

func TestRegisterBuiltins(t *testing.T) {
	r := strategy.NewRegistry()
	Register(r)

	got := r.List()
	want := []string{"ma-cross", "mean-reversion"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRollingMean(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rollingMean = %v, want %v", got, want)
	}
}

func TestRollingStd(t *testing.T) {
	got := rollingStd([]float64{1, 2, 4}, 3)
	if !math.IsNaN(got[0]) {
		t.Errorf("std with one sample = %v, want NaN", got[0])
	}
	// Sample deviation of [1, 2] is sqrt(0.5).
	if math.Abs(got[1]-math.Sqrt(0.5)) > 1e-12 {
		t.Errorf("std[1] = %v, want %v", got[1], math.Sqrt(0.5))
	}
	// Sample deviation of [1, 2, 4] is sqrt(7/3).
	if math.Abs(got[2]-math.Sqrt(7.0/3.0)) > 1e-12 {
		t.Errorf("std[2] = %v, want %v", got[2], math.Sqrt(7.0/3.0))
	}
}

func TestMACrossParamValidation(t *testing.T) {
	cases := []struct {
		name   string
		params strategy.Params
	}{
		{"short not below long", strategy.Params{"short_window": 30, "long_window": 30}},
		{"zero short", strategy.Params{"short_window": 0, "long_window": 30}},
		{"negative long", strategy.Params{"short_window": 5, "long_window": -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMACross(tc.params); err == nil {
				t.Errorf("NewMACross(%v) should fail", tc.params)
			}
		})
	}
}

func TestMACrossSignals(t *testing.T) {
	strat, err := NewMACross(strategy.Params{"short_window": 2, "long_window": 3})
	if err != nil {
		t.Fatalf("NewMACross: %v", err)
	}

	// SMA2: 10, 9.5, 8.5, 10 and SMA3: 10, 9.5, 9, 29/3. The short average
	// crosses below at the third bar and back above at the fourth.
	bars := mkBars(10, 9, 8, 12)
	signals, err := strat.GenerateSignals(bars)
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}

	want := []domain.Action{domain.ActionHold, domain.ActionHold, domain.ActionSell, domain.ActionBuy}
	if got := actions(signals); !reflect.DeepEqual(got, want) {
		t.Errorf("actions = %v, want %v", got, want)
	}

	for i, s := range signals {
		if !s.Timestamp.Equal(bars[i].Timestamp) {
			t.Errorf("signal[%d] timestamp %v != bar timestamp %v", i, s.Timestamp, bars[i].Timestamp)
		}
	}
	if got := signals[1].Indicators["short_ma"]; got != 9.5 {
		t.Errorf("short_ma[1] = %v, want 9.5", got)
	}
	if got := signals[2].Indicators["long_ma"]; got != 9 {
		t.Errorf("long_ma[2] = %v, want 9", got)
	}
}

func TestMeanReversionParamValidation(t *testing.T) {
	if _, err := NewMeanReversion(strategy.Params{"window": 1}); err == nil {
		t.Error("window below 2 should fail")
	}
	if _, err := NewMeanReversion(strategy.Params{"std_dev_multiplier": 0}); err == nil {
		t.Error("zero multiplier should fail")
	}
}

func TestMeanReversionSignals(t *testing.T) {
	strat, err := NewMeanReversion(strategy.Params{"window": 3, "std_dev_multiplier": 1})
	if err != nil {
		t.Fatalf("NewMeanReversion: %v", err)
	}

	// The close dips below the lower band at the fourth bar and recovers
	// above it at the fifth, which is the re-entry BUY.
	bars := mkBars(100, 102, 98, 90, 99)
	signals, err := strat.GenerateSignals(bars)
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}

	want := []domain.Action{domain.ActionHold, domain.ActionHold, domain.ActionHold,
		domain.ActionHold, domain.ActionBuy}
	if got := actions(signals); !reflect.DeepEqual(got, want) {
		t.Errorf("actions = %v, want %v", got, want)
	}

	// Bands are undefined until two samples exist.
	if !math.IsNaN(signals[0].Indicators["upper_band"]) {
		t.Errorf("upper_band[0] = %v, want NaN", signals[0].Indicators["upper_band"])
	}
	if got := signals[2].Indicators["middle_band"]; got != 100 {
		t.Errorf("middle_band[2] = %v, want 100", got)
	}
}

func TestMeanReversionWarmupNeverSignals(t *testing.T) {
	strat, err := NewMeanReversion(nil)
	if err != nil {
		t.Fatalf("NewMeanReversion: %v", err)
	}

	signals, err := strat.GenerateSignals(mkBars(100))
	if err != nil {
		t.Fatalf("GenerateSignals: %v", err)
	}
	if len(signals) != 1 || signals[0].Action != domain.ActionHold {
		t.Errorf("signals = %v, want a single HOLD", signals)
	}
}
