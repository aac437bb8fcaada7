package evaluator

import (
	"math"

	"sentinel-go/internal/domain"
)

// epsilon tolerance for eq/neq comparisons, avoiding float-equality traps.
const epsilon = 1e-4

// CheckThreshold compares an aggregated value against a rule threshold.
// Unknown conditions fail closed: they never trigger and never panic, so
// a misconfigured rule cannot take down the evaluation loop.
func CheckThreshold(value float64, condition domain.Condition, threshold float64) bool {
	switch condition {
	case domain.ConditionGT:
		return value > threshold
	case domain.ConditionGTE:
		return value >= threshold
	case domain.ConditionLT:
		return value < threshold
	case domain.ConditionLTE:
		return value <= threshold
	case domain.ConditionEQ:
		return math.Abs(value-threshold) < epsilon
	case domain.ConditionNEQ:
		return math.Abs(value-threshold) >= epsilon
	default:
		return false
	}
}
