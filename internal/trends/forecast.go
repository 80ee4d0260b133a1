package trends

import (
	"math"
	"time"
)

const (
	movingAverageWindow = 7
	slopeWindow         = 14
	confidenceDecay     = 0.05
	confidenceFloor     = 0.5
)

// ForecastPoint is a projected sentiment value for a future day.
type ForecastPoint struct {
	Date               string  `json:"date"`
	PredictedSentiment float64 `json:"predicted_sentiment"`
	Confidence         float64 `json:"confidence"`
}

// Forecast extrapolates the series `days` days ahead from the 7-day moving
// average plus the least-squares slope of the trailing 14 points. It is a
// heuristic projection; confidence only encodes distance from the last point.
// Fewer than MinPoints points yields an empty forecast.
func Forecast(series []Point, days int) []ForecastPoint {
	if len(series) < MinPoints || days <= 0 {
		return []ForecastPoint{}
	}

	vals := values(series)
	avg := mean(vals[len(vals)-movingAverageWindow:])

	n := slopeWindow
	if len(vals) < n {
		n = len(vals)
	}
	slope := linearSlope(vals[len(vals)-n:])

	last, err := time.Parse(DateLayout, series[len(series)-1].Date)
	hasDate := err == nil

	out := make([]ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		fp := ForecastPoint{
			PredictedSentiment: clamp01(avg + slope*float64(i)),
			Confidence:         math.Max(confidenceFloor, 1-confidenceDecay*float64(i)),
		}
		if hasDate {
			fp.Date = last.AddDate(0, 0, i).Format(DateLayout)
		}
		out = append(out, fp)
	}
	return out
}

// linearSlope is the OLS slope of ys against x = 0..n-1.
func linearSlope(ys []float64) float64 {
	n := float64(len(ys))
	if len(ys) < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
