package cfr

import (
	"math"
)

// DiscountParams configure the weighting of regrets and strategy between
// iterations. An empty DiscountParams struct is valid and corresponds to
// "vanilla" CFR.
type DiscountParams struct {
	UseRegretMatchingPlus bool    `yaml:"regret_matching_plus"` // CFR+
	LinearWeighting       bool    `yaml:"linear_weighting"`     // Linear CFR
	DiscountAlpha         float64 `yaml:"alpha"`                // Discounted CFR
	DiscountBeta          float64 `yaml:"beta"`                 // Discounted CFR
	DiscountGamma         float64 `yaml:"gamma"`                // Discounted CFR
}

// IsVanilla reports whether no discounting is configured.
func (p DiscountParams) IsVanilla() bool {
	return p == DiscountParams{}
}

// Gets the discount factors as configured by the parameters for the
// various CFR weighting schemes: CFR+, linear CFR, etc.
func (p DiscountParams) GetDiscountFactors(iter int) (positive, negative, sum float64) {
	positive = 1.0
	negative = 1.0
	sum = 1.0

	// See: https://arxiv.org/pdf/1809.04040.pdf
	// Linear CFR is equivalent to weighting the reach prob on each
	// iteration by (t / (t+1)), and this reduces numerical instability.
	if p.LinearWeighting {
		sum = float64(iter) / float64(iter+1)
	}

	if p.UseRegretMatchingPlus {
		negative = 0.0 // No negative regrets.
	}

	if p.DiscountAlpha != 0 {
		// t^alpha / (t^alpha + 1)
		x := math.Pow(float64(iter), p.DiscountAlpha)
		positive = x / (x + 1.0)
	}

	if p.DiscountBeta != 0 {
		// t^beta / (t^beta + 1)
		x := math.Pow(float64(iter), p.DiscountBeta)
		negative = x / (x + 1.0)
	}

	if p.DiscountGamma != 0 {
		// (t / (t+1)) ^ gamma
		x := float64(iter) / float64(iter+1)
		sum = math.Pow(x, p.DiscountGamma)
	}

	return
}

// discountAll applies the discount factors for iter to every tally in stores.
func discountAll(stores []InformationSetStore, params DiscountParams, iter int) {
	if params.IsVanilla() {
		return
	}

	positive, negative, sum := params.GetDiscountFactors(iter)
	for _, store := range stores {
		store.Range(func(key string, record GameStateRecord) bool {
			if tally, ok := record.(*InformationSetNodeTally); ok {
				tally.Discount(positive, negative, sum)
			}
			return true
		})
	}
}
