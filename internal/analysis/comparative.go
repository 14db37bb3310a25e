package analysis

import (
	"math"
	"sort"
)

// Compare runs the trend analysis for every site in series and aggregates the
// results. Sites with fewer than two points are skipped rather than failing
// the whole comparison. Pairwise Pearson correlations are computed for every
// unordered pair of eligible sites, index-aligned and truncated to the
// shorter series.
func Compare(metric string, series map[string][]TimeSeriesPoint) *ComparativeReport {
	siteIDs := make([]string, 0, len(series))
	for id := range series {
		siteIDs = append(siteIDs, id)
	}
	sort.Strings(siteIDs)

	report := &ComparativeReport{
		Metric:     metric,
		SiteTrends: make(map[string]*TrendReport),
	}

	var increasing, decreasing, stable int
	var eligible []string
	for _, id := range siteIDs {
		points := series[id]

		for _, p := range points {
			if report.TimeRange.Start.IsZero() || p.Date.Before(report.TimeRange.Start) {
				report.TimeRange.Start = p.Date
			}
			if p.Date.After(report.TimeRange.End) {
				report.TimeRange.End = p.Date
			}
		}

		trend, err := AnalyzeTrend(metric, id, points)
		if err != nil {
			continue
		}
		report.SiteTrends[id] = trend
		eligible = append(eligible, id)

		switch trend.Trend {
		case TrendIncreasing:
			increasing++
		case TrendDecreasing:
			decreasing++
		default:
			stable++
		}
	}

	// Falling risk magnitudes mean the fleet is improving. A direction wins
	// only by strictly dominating both of the other counts.
	switch {
	case decreasing > increasing && decreasing > stable:
		report.OverallTrend = OverallImproving
	case increasing > decreasing && increasing > stable:
		report.OverallTrend = OverallDeteriorating
	default:
		report.OverallTrend = OverallMixed
	}

	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			report.Correlations = append(report.Correlations, CorrelationPair{
				SiteA:       eligible[i],
				SiteB:       eligible[j],
				Correlation: Pearson(values(series[eligible[i]]), values(series[eligible[j]])),
			})
		}
	}

	return report
}

// Pearson computes the correlation coefficient of two series, aligned by
// index and truncated to the shorter one. A series with zero variance yields
// 0 instead of a division error.
func Pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}

	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func values(points []TimeSeriesPoint) []float64 {
	vs := make([]float64, len(points))
	for i, p := range points {
		vs[i] = p.Value
	}
	return vs
}
