package engine

import (
	"testing"
	"time"
)

func TestExpiry(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		minutes    int
		multiplier float64
		want       time.Duration
	}{
		{"normal mode", 5, 1.0, 300000 * time.Millisecond},
		{"test mode tenth", 5, 0.1, 30000 * time.Millisecond},
		{"test mode quarter", 8, 0.25, 120000 * time.Millisecond},
		{"one minute", 1, 1.0, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expiry(t0, tt.minutes, tt.multiplier)
			if d := got.Sub(t0); d != tt.want {
				t.Errorf("Expiry offset = %v, want %v", d, tt.want)
			}
		})
	}
}

func TestExpiryProportionalToMultiplier(t *testing.T) {
	t0 := time.Now()
	full := Expiry(t0, 10, 1.0).Sub(t0)
	half := Expiry(t0, 10, 0.5).Sub(t0)
	if half*2 != full {
		t.Errorf("halving the multiplier should halve the deadline: full=%v half=%v", full, half)
	}
}
