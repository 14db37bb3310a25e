// Package scoring implements the additive ABC risk-scoring method:
// Probability (A), Loss of Value (B) and Fraction Affected (C), each an
// integer 1-5, sum to a magnitude of 3-15 from which an ordinal priority is
// derived.
package scoring

import (
	"fmt"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

const (
	ComponentMin = 1
	ComponentMax = 5

	MagnitudeMin = ComponentMin * 3
	MagnitudeMax = ComponentMax * 3
)

// InvalidComponentError reports an ABC component outside [1,5]. Scoring never
// clamps; an out-of-range input is an assessor error that must surface.
type InvalidComponentError struct {
	Component string
	Value     int
}

func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("scoring: component %s out of range [%d,%d]: %d",
		e.Component, ComponentMin, ComponentMax, e.Value)
}

// Magnitude sums the three ABC components. Each component must be in [1,5];
// the result is always in [3,15].
func Magnitude(probability, lossOfValue, fractionAffected int) (int, error) {
	for _, c := range []struct {
		name  string
		value int
	}{
		{"probability", probability},
		{"loss_of_value", lossOfValue},
		{"fraction_affected", fractionAffected},
	} {
		if c.value < ComponentMin || c.value > ComponentMax {
			return 0, &InvalidComponentError{Component: c.name, Value: c.value}
		}
	}
	return probability + lossOfValue + fractionAffected, nil
}

// PriorityFor maps a magnitude onto the priority scale. Thresholds are
// inclusive lower bounds evaluated highest-first.
func PriorityFor(magnitude int) models.Priority {
	switch {
	case magnitude >= 13:
		return models.PriorityExtremelyHigh
	case magnitude >= 10:
		return models.PriorityVeryHigh
	case magnitude >= 7:
		return models.PriorityHigh
	case magnitude >= 4:
		return models.PriorityMediumHigh
	default:
		return models.PriorityLow
	}
}

// uncertaintySteps is the escalation table: medium uncertainty raises the
// priority one level, high raises it two, saturating at extremely-high.
// Low uncertainty never escalates.
var uncertaintySteps = map[models.UncertaintyLevel]int{
	models.UncertaintyLow:    0,
	models.UncertaintyMedium: 1,
	models.UncertaintyHigh:   2,
}

// AdjustPriority escalates p by the step count for the given uncertainty
// level, capped at extremely-high. It never de-escalates.
func AdjustPriority(p models.Priority, u models.UncertaintyLevel) models.Priority {
	steps := uncertaintySteps[u]
	if steps == 0 {
		return p
	}
	return models.PriorityFromRank(p.Rank() + steps)
}

// Score is the full result of scoring one assessment.
type Score struct {
	Magnitude int
	// Priority is derived from magnitude alone.
	Priority models.Priority
	// Adjusted is Priority escalated for assessor uncertainty; this is the
	// value aggregate risk derivation works with.
	Adjusted models.Priority
}

// Calculate scores one set of ABC components. Pure and total: identical
// inputs always produce identical outputs.
func Calculate(probability, lossOfValue, fractionAffected int, u models.UncertaintyLevel) (Score, error) {
	m, err := Magnitude(probability, lossOfValue, fractionAffected)
	if err != nil {
		return Score{}, err
	}
	p := PriorityFor(m)
	return Score{
		Magnitude: m,
		Priority:  p,
		Adjusted:  AdjustPriority(p, u),
	}, nil
}
