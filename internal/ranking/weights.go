package ranking

import (
	"github.com/formbricks/feedrank/internal/models"
)

// EffectiveWeights merges a profile's overrides over the defaults. Unknown keys are ignored here;
// they are rejected when the profile is updated. The result is not normalized.
func EffectiveWeights(overrides map[string]float64) map[string]float64 {
	weights := models.DefaultRankingWeights()

	for name, w := range overrides {
		if models.IsRankingFactor(name) {
			weights[name] = w
		}
	}

	return weights
}
