package models

import "time"

// Assessment is one ABC risk assessment of a single threat against a single
// site. Records are immutable once created; corrections go through an
// explicit update that replaces the whole record.
type Assessment struct {
	ID               string           `json:"id"`
	SiteID           string           `json:"site_id"`
	ThreatType       ThreatType       `json:"threat_type"`
	Probability      int              `json:"probability"`       // A component, 1-5
	LossOfValue      int              `json:"loss_of_value"`     // B component, 1-5
	FractionAffected int              `json:"fraction_affected"` // C component, 1-5
	Magnitude        int              `json:"magnitude"`         // A+B+C, 3-15
	Priority         Priority         `json:"priority"`
	Uncertainty      UncertaintyLevel `json:"uncertainty"`
	AssessmentDate   time.Time        `json:"assessment_date"`
	Assessor         string           `json:"assessor"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
