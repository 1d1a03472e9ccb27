package logs

import (
	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

// computeProfile derives one target's risk profile from the full mode history
// of its records, oldest first. Each record contributes its mode's weight,
// with per-occurrence overrides counted per mode (the second mute can weigh
// differently from the first). Kick and ban records drive the life state,
// ban winning over kick.
func computeProfile(modes []string, ref *refdata.Config) models.RiskProfile {
	profile := models.RiskProfile{State: models.StateAlive}
	occurrences := make(map[string]int)

	for _, mode := range modes {
		profile.Count++
		occurrences[mode]++

		// Modes without a weight entry contribute nothing.
		weight := ref.RiskWeights[mode]
		value := weight.Normal
		if override, hit := weight.ByOccurrence[occurrences[mode]]; hit {
			value = override
		}
		profile.Risk += value

		switch mode {
		case ref.BanMode:
			profile.State = models.StateBanned
		case ref.KickMode:
			if profile.State != models.StateBanned {
				profile.State = models.StateKicked
			}
		}
	}
	return profile
}
