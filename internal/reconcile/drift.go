package reconcile

import (
	"github.com/shopspring/decimal"

	"worklane/internal/domain"
)

// PricingChanged reports whether the extracted task's pricing has drifted
// beyond tolerance relative to the clarified task. Amount is checked first,
// then estimated hours; the result is the boolean OR of the two, so the
// short-circuit on amount is not observable. Absent numeric fields compare as
// zero.
func PricingChanged(extracted, clarified domain.Task, tolerance decimal.Decimal) bool {
	if exceedsTolerance(extracted.Amount, clarified.Amount, tolerance) {
		return true
	}
	return exceedsTolerance(extracted.EstimatedHours, clarified.EstimatedHours, tolerance)
}

// exceedsTolerance applies the relative-difference rule with a zero-baseline
// special case: a zero clarified value is "changed" only when the extracted
// value became positive. The baseline's absolute value is the denominator so
// the comparison direction stays sane for credit lines.
func exceedsTolerance(extracted, clarified, tolerance decimal.Decimal) bool {
	if clarified.IsZero() {
		return extracted.GreaterThan(decimal.Zero)
	}
	delta := extracted.Sub(clarified).Abs().Div(clarified.Abs())
	return delta.GreaterThan(tolerance)
}
