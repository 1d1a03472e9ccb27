package logs

import (
	"math"
	"testing"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

func TestComputeProfile(t *testing.T) {
	ref := refdata.Default()

	tests := []struct {
		name  string
		modes []string
		count int
		risk  float64
		state models.LifeState
	}{
		{"no history", nil, 0, 0, models.StateAlive},
		{"first mute uses the occurrence override", []string{"mute"}, 1, 0.3, models.StateAlive},
		{"second mute falls back to normal", []string{"mute", "mute"}, 2, 0.8, models.StateAlive},
		{"kick marks kicked", []string{"kick"}, 1, 1.0, models.StateKicked},
		{"ban marks banned", []string{"warn", "ban"}, 2, 2.2, models.StateBanned},
		{"ban wins over a later kick", []string{"ban", "kick"}, 2, 3.0, models.StateBanned},
		{"unweighted mode contributes nothing", []string{"vaporize"}, 1, 0, models.StateAlive},
		{"mixed history", []string{"warn", "mute", "mute", "kick"}, 4, 1.0 + 0.3 + 0.5 + 0.2, models.StateKicked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeProfile(tt.modes, ref)
			if got.Count != tt.count {
				t.Errorf("count = %d, want %d", got.Count, tt.count)
			}
			if math.Abs(got.Risk-tt.risk) > 1e-9 {
				t.Errorf("risk = %v, want %v", got.Risk, tt.risk)
			}
			if got.State != tt.state {
				t.Errorf("state = %s, want %s", got.State, tt.state)
			}
		})
	}
}

func TestComputeProfileOccurrencesArePerMode(t *testing.T) {
	ref := refdata.Default()

	// A kick between two mutes must not advance the mute occurrence count.
	got := computeProfile([]string{"mute", "kick", "mute"}, ref)
	want := 0.3 + 1.0 + 0.5
	if math.Abs(got.Risk-want) > 1e-9 {
		t.Errorf("risk = %v, want %v", got.Risk, want)
	}
}
