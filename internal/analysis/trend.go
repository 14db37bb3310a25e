package analysis

import "math"

const (
	// stableThreshold bounds |tanh(slope)| below which a trend counts as
	// stable rather than a real movement.
	stableThreshold = 0.1

	// forecastSteps is the fixed horizon: three monthly points past the
	// last observation. Extrapolation is by sequence index, which assumes
	// roughly monthly-spaced inputs.
	forecastSteps = 3
)

// AnalyzeTrend fits an ordinary least-squares line through a time-ordered
// series and classifies it. The series must hold at least two points.
//
// Regression runs against the 0-based sequence index, not calendar time:
// observations are treated as equally spaced in sequence order.
func AnalyzeTrend(metric, siteID string, points []TimeSeriesPoint) (*TrendReport, error) {
	if len(points) < 2 {
		return nil, &InsufficientDataError{SiteID: siteID, Points: len(points)}
	}

	slope, intercept := fitLine(points)
	strength := math.Tanh(slope)

	trend := TrendStable
	if math.Abs(strength) >= stableThreshold {
		if slope > 0 {
			trend = TrendIncreasing
		} else {
			trend = TrendDecreasing
		}
	}

	var sum float64
	for _, p := range points {
		sum += p.Value
	}

	first, last := points[0].Value, points[len(points)-1].Value
	var changeRate float64
	if first != 0 {
		changeRate = (last - first) / first * 100
	}

	forecast := make([]TimeSeriesPoint, 0, forecastSteps)
	lastDate := points[len(points)-1].Date
	for step := 1; step <= forecastSteps; step++ {
		value := intercept + slope*float64(len(points)-1+step)
		if value < 0 {
			value = 0
		}
		forecast = append(forecast, TimeSeriesPoint{
			Date:   lastDate.AddDate(0, step, 0),
			Value:  value,
			SiteID: siteID,
		})
	}

	return &TrendReport{
		Metric:        metric,
		SiteID:        siteID,
		DataPoints:    points,
		Trend:         trend,
		TrendStrength: strength,
		AverageValue:  sum / float64(len(points)),
		ChangeRate:    changeRate,
		Forecast:      forecast,
	}, nil
}

// fitLine computes OLS slope and intercept of value against sequence index.
func fitLine(points []TimeSeriesPoint) (slope, intercept float64) {
	n := float64(len(points))

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		// Single distinct index cannot happen with n >= 2; kept for safety.
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
