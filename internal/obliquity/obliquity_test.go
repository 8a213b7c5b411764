package obliquity

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want float64 // arcseconds
	}{
		{"J2000", 0, 84381.406},
		{"J2100", 1, 84381.406 - 46.836769 - 0.0001831 + 0.00200340 - 0.000000576 - 0.0000000434},
		{"J1900", -1, 84381.406 + 46.836769 - 0.0001831 - 0.00200340 - 0.000000576 + 0.0000000434},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unit.Angle(Mean(tt.t)).Sec()
			if math.Abs(got-tt.want) > 1e-8 {
				t.Errorf("Mean(%v) = %.9f\", want %.9f\"", tt.t, got, tt.want)
			}
		})
	}

	// About 23°26'21" at J2000.
	if deg := Mean(0) * 180 / math.Pi; math.Abs(deg-23.4392794) > 1e-6 {
		t.Errorf("Mean(0) = %.7f°", deg)
	}
}
