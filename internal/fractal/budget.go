package fractal

import "math"

const (
	baseBudget      = 50
	budgetPerDecade = 25
	minBudget       = 1
	maxBudget       = 1 << 20
)

// Budget returns the iteration budget for a zoom factor:
// floor(50 + 25·log10(zoom)), never below 1.
func Budget(zoom float64) int {
	if !(zoom > 0) {
		return minBudget
	}
	b := math.Floor(baseBudget + budgetPerDecade*math.Log10(zoom))
	switch {
	case b < minBudget:
		return minBudget
	case b > maxBudget:
		return maxBudget
	}
	return int(b)
}
