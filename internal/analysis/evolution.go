package analysis

import (
	"time"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

const (
	// highRiskFloor is the magnitude at or above which a timeline entry
	// counts toward a critical period.
	highRiskFloor = 10

	// escalationDelta is the first-vs-last magnitude difference beyond
	// which a timeline is classified as escalating (or improving when
	// negative).
	escalationDelta = 1
)

// Evolution classifies how a single threat developed over a site's timeline.
type Evolution string

const (
	EvolutionEscalating Evolution = "escalating"
	EvolutionStable     Evolution = "stable"
	EvolutionImproving  Evolution = "improving"
)

// CriticalPeriod is a maximal contiguous run of timeline entries at or above
// the high-risk floor. Ongoing marks a period still open at the end of the
// data; its End is then the last timeline date.
type CriticalPeriod struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PeakMagnitude int       `json:"peak_magnitude"`
	Ongoing       bool      `json:"ongoing,omitempty"`
}

// ThreatEvolutionReport describes one threat's history at one site.
type ThreatEvolutionReport struct {
	ThreatType      models.ThreatType `json:"threat_type"`
	SiteID          string            `json:"site_id"`
	Timeline        []TimeSeriesPoint `json:"timeline"`
	Evolution       Evolution         `json:"evolution"`
	CriticalPeriods []CriticalPeriod  `json:"critical_periods"`
}

// AnalyzeEvolution classifies the trajectory of one (site, threat) pair and
// detects critical periods. Assessments must all belong to that pair and be
// time-ordered; an empty timeline is an error.
func AnalyzeEvolution(siteID string, threat models.ThreatType, timeline []models.Assessment) (*ThreatEvolutionReport, error) {
	if len(timeline) == 0 {
		return nil, &NoDataError{SiteID: siteID, ThreatType: threat}
	}

	report := &ThreatEvolutionReport{
		ThreatType: threat,
		SiteID:     siteID,
		Timeline:   SeriesFromAssessments(timeline),
		Evolution:  classifyEvolution(timeline),
	}
	report.CriticalPeriods = detectCriticalPeriods(timeline)
	return report, nil
}

// classifyEvolution compares the first and last magnitudes. Single-entry
// timelines are always stable.
func classifyEvolution(timeline []models.Assessment) Evolution {
	diff := timeline[len(timeline)-1].Magnitude - timeline[0].Magnitude
	switch {
	case diff > escalationDelta:
		return EvolutionEscalating
	case diff < -escalationDelta:
		return EvolutionImproving
	default:
		return EvolutionStable
	}
}

// detectCriticalPeriods scans the timeline once. A period opens at the first
// high-risk entry, stays open while consecutive entries remain high risk,
// and closes on the entry that drops below the floor, ending at the date of
// the last high-risk entry before the drop. A period still open when the
// timeline ends closes as ongoing at the last date.
func detectCriticalPeriods(timeline []models.Assessment) []CriticalPeriod {
	var periods []CriticalPeriod
	var open *CriticalPeriod

	for _, a := range timeline {
		if a.Magnitude >= highRiskFloor {
			if open == nil {
				open = &CriticalPeriod{Start: a.AssessmentDate, PeakMagnitude: a.Magnitude}
			} else if a.Magnitude > open.PeakMagnitude {
				open.PeakMagnitude = a.Magnitude
			}
			open.End = a.AssessmentDate
			continue
		}
		if open != nil {
			periods = append(periods, *open)
			open = nil
		}
	}

	if open != nil {
		open.Ongoing = true
		periods = append(periods, *open)
	}
	return periods
}
