// Package analysis derives temporal trends, cross-site comparisons and
// threat-evolution reports from assessment time series. All functions are
// pure: they mutate nothing and identical inputs yield identical reports.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

// MetricMagnitude is the default scalar metric projected from assessments.
const MetricMagnitude = "magnitude"

// TimeSeriesPoint projects one assessment onto a single scalar metric.
type TimeSeriesPoint struct {
	Date       time.Time         `json:"date"`
	Value      float64           `json:"value"`
	SiteID     string            `json:"site_id"`
	SiteName   string            `json:"site_name,omitempty"`
	ThreatType models.ThreatType `json:"threat_type,omitempty"`
	Priority   models.Priority   `json:"priority,omitempty"`
}

// TrendDirection classifies the slope of a fitted series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// OverallTrend classifies a fleet of sites. In a risk context a decreasing
// magnitude trend is an improvement.
type OverallTrend string

const (
	OverallImproving     OverallTrend = "improving"
	OverallDeteriorating OverallTrend = "deteriorating"
	OverallMixed         OverallTrend = "mixed"
)

// TrendReport is the result of fitting one site's series for one metric.
type TrendReport struct {
	Metric        string            `json:"metric"`
	SiteID        string            `json:"site_id"`
	DataPoints    []TimeSeriesPoint `json:"data_points"`
	Trend         TrendDirection    `json:"trend"`
	TrendStrength float64           `json:"trend_strength"` // in [-1,1]
	AverageValue  float64           `json:"average_value"`
	ChangeRate    float64           `json:"change_rate"` // percent, first vs last
	Forecast      []TimeSeriesPoint `json:"forecast"`
}

// TimeRange is the span covered by a set of data points.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CorrelationPair is the Pearson correlation between two sites' series.
type CorrelationPair struct {
	SiteA       string  `json:"site_a"`
	SiteB       string  `json:"site_b"`
	Correlation float64 `json:"correlation"` // in [-1,1]
}

// ComparativeReport aggregates per-site trends across a fleet.
type ComparativeReport struct {
	Metric       string                  `json:"metric"`
	SiteTrends   map[string]*TrendReport `json:"site_trends"`
	OverallTrend OverallTrend            `json:"overall_trend"`
	Correlations []CorrelationPair       `json:"correlations"`
	TimeRange    TimeRange               `json:"time_range"`
}

// InsufficientDataError reports a series too short to fit a trend.
type InsufficientDataError struct {
	SiteID string
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("analysis: site %s has %d data points, need at least 2", e.SiteID, e.Points)
}

// NoDataError reports an empty threat timeline.
type NoDataError struct {
	SiteID     string
	ThreatType models.ThreatType
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("analysis: no assessments for site %s threat %s", e.SiteID, e.ThreatType)
}

// SeriesFromAssessments projects assessments onto magnitude time-series
// points, ordered by assessment date ascending.
func SeriesFromAssessments(assessments []models.Assessment) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, 0, len(assessments))
	for _, a := range assessments {
		points = append(points, TimeSeriesPoint{
			Date:       a.AssessmentDate,
			Value:      float64(a.Magnitude),
			SiteID:     a.SiteID,
			ThreatType: a.ThreatType,
			Priority:   a.Priority,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
