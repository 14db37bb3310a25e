package models

import "time"

// SiteStatus describes the conservation state of a heritage site.
type SiteStatus string

const (
	SiteStatusActive     SiteStatus = "active"
	SiteStatusMonitored  SiteStatus = "monitored"
	SiteStatusEndangered SiteStatus = "endangered"
	SiteStatusLost       SiteStatus = "lost"
)

// RiskProfile is a site's aggregate risk state. It is derived entirely from
// the site's assessments and is never authored directly.
type RiskProfile struct {
	OverallRisk   Priority     `json:"overall_risk"`
	LastUpdated   time.Time    `json:"last_updated"`
	ActiveThreats []ThreatType `json:"active_threats"`
}

// Site is a cultural-heritage site under threat monitoring.
type Site struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Location     string      `json:"location"`
	Description  string      `json:"description,omitempty"`
	Significance string      `json:"significance,omitempty"`
	Status       SiteStatus  `json:"status"`
	RiskProfile  RiskProfile `json:"risk_profile"`
	// LastAssessment is the most recent assessment date on record for the
	// site, zero if it has never been assessed.
	LastAssessment time.Time `json:"last_assessment,omitzero"`
	CreatedAt      time.Time `json:"created_at"`
}
