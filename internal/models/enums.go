package models

// ThreatType is the closed set of threat categories tracked by the ABC method.
type ThreatType string

const (
	ThreatEarthquake       ThreatType = "earthquake"
	ThreatFlooding         ThreatType = "flooding"
	ThreatWeathering       ThreatType = "weathering"
	ThreatVegetation       ThreatType = "vegetation"
	ThreatUrbanDevelopment ThreatType = "urban-development"
	ThreatTourismPressure  ThreatType = "tourism-pressure"
	ThreatLooting          ThreatType = "looting"
	ThreatConflict         ThreatType = "conflict"
	ThreatClimateChange    ThreatType = "climate-change"
)

// ThreatTypes lists every valid threat type in declaration order.
var ThreatTypes = []ThreatType{
	ThreatEarthquake,
	ThreatFlooding,
	ThreatWeathering,
	ThreatVegetation,
	ThreatUrbanDevelopment,
	ThreatTourismPressure,
	ThreatLooting,
	ThreatConflict,
	ThreatClimateChange,
}

func (t ThreatType) String() string { return string(t) }

func (t ThreatType) Valid() bool {
	for _, known := range ThreatTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Priority is the ordinal risk category derived from an ABC magnitude.
type Priority string

const (
	PriorityLow           Priority = "low"
	PriorityMediumHigh    Priority = "medium-high"
	PriorityHigh          Priority = "high"
	PriorityVeryHigh      Priority = "very-high"
	PriorityExtremelyHigh Priority = "extremely-high"
)

// priorityRank is the total ordering table for Priority. Higher rank means
// more severe.
var priorityRank = map[Priority]int{
	PriorityLow:           0,
	PriorityMediumHigh:    1,
	PriorityHigh:          2,
	PriorityVeryHigh:      3,
	PriorityExtremelyHigh: 4,
}

// priorityByRank is the inverse of priorityRank.
var priorityByRank = []Priority{
	PriorityLow,
	PriorityMediumHigh,
	PriorityHigh,
	PriorityVeryHigh,
	PriorityExtremelyHigh,
}

func (p Priority) String() string { return string(p) }

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank returns the position of p on the ordered scale, 0 (low) through
// 4 (extremely-high). Unknown priorities rank below low.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

// PriorityFromRank maps a rank back onto the scale, saturating at both ends.
func PriorityFromRank(rank int) Priority {
	if rank < 0 {
		rank = 0
	}
	if rank >= len(priorityByRank) {
		rank = len(priorityByRank) - 1
	}
	return priorityByRank[rank]
}

// MaxPriority returns the more severe of a and b.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// UncertaintyLevel qualifies how confident an assessor was in the ABC
// component values.
type UncertaintyLevel string

const (
	UncertaintyLow    UncertaintyLevel = "low"
	UncertaintyMedium UncertaintyLevel = "medium"
	UncertaintyHigh   UncertaintyLevel = "high"
)

func (u UncertaintyLevel) Valid() bool {
	switch u {
	case UncertaintyLow, UncertaintyMedium, UncertaintyHigh:
		return true
	}
	return false
}
