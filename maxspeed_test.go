package monad

import (
	"math"
	"testing"
)

func TestParseMaxSpeed(t *testing.T) {
	tests := []struct {
		value string
		speed float64
		ok    bool
	}{
		{"50", 50, true},
		{"90", 90, true},
		{"12.5", 12.5, true},
		{" 70 ", 70, true},
		{"60 km/h", 60, true},
		{"60km/h", 60, true},
		{"30 mph", 30 * mphToKmh, true},
		{"0", 0, false},
		{"", 0, false},
		{"none", 0, false},
		{"signals", 0, false},
		{"RU:urban", 0, false},
		{"50;30", 0, false},
	}
	for _, tt := range tests {
		speed, ok := parseMaxSpeed(tt.value)
		if ok != tt.ok {
			t.Errorf("Value '%s': expected ok = %t, but got %t", tt.value, tt.ok, ok)
			continue
		}
		if math.Abs(speed-tt.speed) > 1e-9 {
			t.Errorf("Value '%s': speed should be %f, but got %f", tt.value, tt.speed, speed)
		}
	}
}
