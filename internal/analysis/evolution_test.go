package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

func threatTimeline(siteID string, threat models.ThreatType, start time.Time, magnitudes ...int) []models.Assessment {
	timeline := make([]models.Assessment, 0, len(magnitudes))
	for i, m := range magnitudes {
		timeline = append(timeline, models.Assessment{
			ID:             siteID + "_" + threat.String() + "_" + time.Month(i+1).String(),
			SiteID:         siteID,
			ThreatType:     threat,
			Magnitude:      m,
			AssessmentDate: start.AddDate(0, i, 0),
		})
	}
	return timeline
}

func TestAnalyzeEvolution_EmptyTimeline(t *testing.T) {
	_, err := AnalyzeEvolution("s1", models.ThreatFlooding, nil)
	if err == nil {
		t.Fatal("expected error for empty timeline")
	}
	var nde *NoDataError
	if !errors.As(err, &nde) {
		t.Fatalf("expected NoDataError, got %T", err)
	}
	if nde.SiteID != "s1" || nde.ThreatType != models.ThreatFlooding {
		t.Errorf("unexpected error fields: %+v", nde)
	}
}

func TestAnalyzeEvolution_Classification(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		magnitudes []int
		want       Evolution
	}{
		{"escalating", []int{9, 10, 12}, EvolutionEscalating},
		{"improving", []int{12, 10, 7}, EvolutionImproving},
		{"stable within delta", []int{9, 12, 10}, EvolutionStable},
		{"single entry", []int{14}, EvolutionStable},
		{"exactly plus one", []int{8, 9}, EvolutionStable},
		{"exactly minus one", []int{9, 8}, EvolutionStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timeline := threatTimeline("s1", models.ThreatEarthquake, start, tc.magnitudes...)
			report, err := AnalyzeEvolution("s1", models.ThreatEarthquake, timeline)
			if err != nil {
				t.Fatalf("AnalyzeEvolution failed: %v", err)
			}
			if report.Evolution != tc.want {
				t.Errorf("expected %s, got %s", tc.want, report.Evolution)
			}
		})
	}
}

func TestAnalyzeEvolution_EscalatingScenario(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline := threatTimeline("petra", models.ThreatFlooding, start, 9, 12)

	report, err := AnalyzeEvolution("petra", models.ThreatFlooding, timeline)
	if err != nil {
		t.Fatalf("AnalyzeEvolution failed: %v", err)
	}

	if report.Evolution != EvolutionEscalating {
		t.Errorf("expected escalating, got %s", report.Evolution)
	}
	// Only the second entry is at or above the floor, so one ongoing period.
	if len(report.CriticalPeriods) != 1 {
		t.Fatalf("expected 1 critical period, got %d", len(report.CriticalPeriods))
	}
	cp := report.CriticalPeriods[0]
	if cp.PeakMagnitude != 12 {
		t.Errorf("expected peak 12, got %d", cp.PeakMagnitude)
	}
	if !cp.Ongoing {
		t.Error("expected period open at end of data to be ongoing")
	}
}

func TestDetectCriticalPeriods_ClosedPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// high, higher, drop, high again
	timeline := threatTimeline("s1", models.ThreatConflict, start, 10, 13, 6, 11)

	report, err := AnalyzeEvolution("s1", models.ThreatConflict, timeline)
	if err != nil {
		t.Fatalf("AnalyzeEvolution failed: %v", err)
	}

	if len(report.CriticalPeriods) != 2 {
		t.Fatalf("expected 2 critical periods, got %d", len(report.CriticalPeriods))
	}

	first := report.CriticalPeriods[0]
	if !first.Start.Equal(start) {
		t.Errorf("expected first period start %v, got %v", start, first.Start)
	}
	// End is the last high point before the drop, not the drop itself.
	if !first.End.Equal(start.AddDate(0, 1, 0)) {
		t.Errorf("expected first period end %v, got %v", start.AddDate(0, 1, 0), first.End)
	}
	if first.PeakMagnitude != 13 {
		t.Errorf("expected first peak 13, got %d", first.PeakMagnitude)
	}
	if first.Ongoing {
		t.Error("closed period must not be ongoing")
	}

	second := report.CriticalPeriods[1]
	if !second.Ongoing {
		t.Error("expected trailing period to be ongoing")
	}
	if second.PeakMagnitude != 11 {
		t.Errorf("expected second peak 11, got %d", second.PeakMagnitude)
	}
}

func TestDetectCriticalPeriods_NoneBelowFloor(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline := threatTimeline("s1", models.ThreatVegetation, start, 4, 7, 9, 6)

	report, err := AnalyzeEvolution("s1", models.ThreatVegetation, timeline)
	if err != nil {
		t.Fatalf("AnalyzeEvolution failed: %v", err)
	}
	if len(report.CriticalPeriods) != 0 {
		t.Errorf("expected no critical periods below the floor, got %d", len(report.CriticalPeriods))
	}
}

func TestAnalyzeEvolution_TimelineProjection(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timeline := threatTimeline("s1", models.ThreatLooting, start, 5, 8)

	report, err := AnalyzeEvolution("s1", models.ThreatLooting, timeline)
	if err != nil {
		t.Fatalf("AnalyzeEvolution failed: %v", err)
	}
	if len(report.Timeline) != 2 {
		t.Fatalf("expected 2 timeline points, got %d", len(report.Timeline))
	}
	if report.Timeline[0].Value != 5 || report.Timeline[1].Value != 8 {
		t.Errorf("expected magnitudes projected onto values, got %v", report.Timeline)
	}
}
