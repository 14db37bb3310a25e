package scoring

import (
	"errors"
	"testing"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

func TestMagnitude_SumsComponents(t *testing.T) {
	for p := 1; p <= 5; p++ {
		for l := 1; l <= 5; l++ {
			for f := 1; f <= 5; f++ {
				m, err := Magnitude(p, l, f)
				if err != nil {
					t.Fatalf("Magnitude(%d,%d,%d) returned error: %v", p, l, f, err)
				}
				if m != p+l+f {
					t.Errorf("Magnitude(%d,%d,%d) = %d, want %d", p, l, f, m, p+l+f)
				}
				if m < MagnitudeMin || m > MagnitudeMax {
					t.Errorf("Magnitude(%d,%d,%d) = %d outside [%d,%d]", p, l, f, m, MagnitudeMin, MagnitudeMax)
				}
			}
		}
	}
}

func TestMagnitude_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name    string
		p, l, f int
		comp    string
	}{
		{"probability zero", 0, 1, 1, "probability"},
		{"probability high", 6, 1, 1, "probability"},
		{"loss negative", 1, -2, 1, "loss_of_value"},
		{"fraction high", 1, 1, 9, "fraction_affected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Magnitude(tc.p, tc.l, tc.f)
			if err == nil {
				t.Fatalf("Magnitude(%d,%d,%d) succeeded, want error", tc.p, tc.l, tc.f)
			}
			var ice *InvalidComponentError
			if !errors.As(err, &ice) {
				t.Fatalf("expected InvalidComponentError, got %T", err)
			}
			if ice.Component != tc.comp {
				t.Errorf("expected component %q, got %q", tc.comp, ice.Component)
			}
		})
	}
}

func TestPriorityFor_Thresholds(t *testing.T) {
	cases := []struct {
		magnitude int
		want      models.Priority
	}{
		{3, models.PriorityLow},
		{4, models.PriorityMediumHigh},
		{6, models.PriorityMediumHigh},
		{7, models.PriorityHigh},
		{9, models.PriorityHigh},
		{10, models.PriorityVeryHigh},
		{12, models.PriorityVeryHigh},
		{13, models.PriorityExtremelyHigh},
		{15, models.PriorityExtremelyHigh},
	}

	for _, tc := range cases {
		if got := PriorityFor(tc.magnitude); got != tc.want {
			t.Errorf("PriorityFor(%d) = %s, want %s", tc.magnitude, got, tc.want)
		}
	}
}

func TestPriorityFor_NonDecreasing(t *testing.T) {
	prev := PriorityFor(MagnitudeMin)
	for m := MagnitudeMin + 1; m <= MagnitudeMax; m++ {
		cur := PriorityFor(m)
		if cur.Rank() < prev.Rank() {
			t.Errorf("priority decreased from %s to %s between magnitudes %d and %d", prev, cur, m-1, m)
		}
		prev = cur
	}
}

func TestAdjustPriority_NeverDecreasesAndSaturates(t *testing.T) {
	levels := []models.UncertaintyLevel{
		models.UncertaintyLow,
		models.UncertaintyMedium,
		models.UncertaintyHigh,
	}
	priorities := []models.Priority{
		models.PriorityLow,
		models.PriorityMediumHigh,
		models.PriorityHigh,
		models.PriorityVeryHigh,
		models.PriorityExtremelyHigh,
	}

	for _, u := range levels {
		for _, p := range priorities {
			got := AdjustPriority(p, u)
			if got.Rank() < p.Rank() {
				t.Errorf("AdjustPriority(%s, %s) = %s de-escalated", p, u, got)
			}
			if got.Rank() > models.PriorityExtremelyHigh.Rank() {
				t.Errorf("AdjustPriority(%s, %s) = %s escaped the scale", p, u, got)
			}
		}
	}
}

func TestAdjustPriority_Table(t *testing.T) {
	cases := []struct {
		in   models.Priority
		u    models.UncertaintyLevel
		want models.Priority
	}{
		{models.PriorityHigh, models.UncertaintyLow, models.PriorityHigh},
		{models.PriorityHigh, models.UncertaintyMedium, models.PriorityVeryHigh},
		{models.PriorityHigh, models.UncertaintyHigh, models.PriorityExtremelyHigh},
		{models.PriorityVeryHigh, models.UncertaintyHigh, models.PriorityExtremelyHigh},
		{models.PriorityExtremelyHigh, models.UncertaintyHigh, models.PriorityExtremelyHigh},
		{models.PriorityLow, models.UncertaintyMedium, models.PriorityMediumHigh},
	}

	for _, tc := range cases {
		if got := AdjustPriority(tc.in, tc.u); got != tc.want {
			t.Errorf("AdjustPriority(%s, %s) = %s, want %s", tc.in, tc.u, got, tc.want)
		}
	}
}

func TestCalculate_Extremes(t *testing.T) {
	s, err := Calculate(1, 1, 1, models.UncertaintyLow)
	if err != nil {
		t.Fatalf("Calculate(1,1,1) failed: %v", err)
	}
	if s.Magnitude != 3 || s.Priority != models.PriorityLow {
		t.Errorf("Calculate(1,1,1) = {%d %s}, want {3 low}", s.Magnitude, s.Priority)
	}

	s, err = Calculate(5, 5, 5, models.UncertaintyLow)
	if err != nil {
		t.Fatalf("Calculate(5,5,5) failed: %v", err)
	}
	if s.Magnitude != 15 || s.Priority != models.PriorityExtremelyHigh {
		t.Errorf("Calculate(5,5,5) = {%d %s}, want {15 extremely-high}", s.Magnitude, s.Priority)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	a, err := Calculate(2, 4, 3, models.UncertaintyMedium)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	b, _ := Calculate(2, 4, 3, models.UncertaintyMedium)
	if a != b {
		t.Errorf("identical inputs produced different scores: %+v vs %+v", a, b)
	}
}
