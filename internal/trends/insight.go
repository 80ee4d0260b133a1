package trends

import (
	"fmt"
	"math"
)

const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"

	insightPeriod   = 7
	changeThreshold = 5.0
)

// Insight compares the latest week of sentiment with the week before it and
// with the forecast.
type Insight struct {
	Trend                 string  `json:"trend"`
	ChangePercent         float64 `json:"change_percent"`
	RecentAverage         float64 `json:"recent_average"`
	PreviousAverage       float64 `json:"previous_average"`
	ForecastTrend         string  `json:"forecast_trend"`
	ForecastChangePercent float64 `json:"forecast_change_percent"`
	Message               string  `json:"message"`
	DataPoints            int     `json:"data_points"`
}

// Summarize builds the insight for a series, projecting forecastDays ahead
// for the forecast comparison.
func Summarize(series []Point, forecastDays int) Insight {
	if len(series) < MinPoints {
		return Insight{
			Trend:         TrendInsufficientData,
			ForecastTrend: TrendInsufficientData,
			Message:       fmt.Sprintf("At least %d days of data are needed for trend analysis (have %d)", MinPoints, len(series)),
			DataPoints:    len(series),
		}
	}

	vals := values(series)
	recent := mean(vals[len(vals)-insightPeriod:])
	previous := recent
	if prior := vals[:len(vals)-insightPeriod]; len(prior) >= insightPeriod {
		previous = mean(prior[len(prior)-insightPeriod:])
	}

	change := percentChange(previous, recent)
	trend := classify(change)

	in := Insight{
		Trend:           trend,
		ChangePercent:   round1(change),
		RecentAverage:   recent,
		PreviousAverage: previous,
		ForecastTrend:   TrendStable,
		DataPoints:      len(series),
	}

	if fc := Forecast(series, forecastDays); len(fc) > 0 {
		preds := make([]float64, len(fc))
		for i, p := range fc {
			preds[i] = p.PredictedSentiment
		}
		fchange := percentChange(recent, mean(preds))
		in.ForecastTrend = classify(fchange)
		in.ForecastChangePercent = round1(fchange)
	}

	in.Message = message(in)
	return in
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func classify(change float64) string {
	switch {
	case change > changeThreshold:
		return TrendImproving
	case change < -changeThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func message(in Insight) string {
	var head string
	switch in.Trend {
	case TrendImproving:
		head = fmt.Sprintf("Customer sentiment is improving, up %.1f%% over the previous week", in.ChangePercent)
	case TrendDeclining:
		head = fmt.Sprintf("Customer sentiment is declining, down %.1f%% from the previous week", math.Abs(in.ChangePercent))
	default:
		head = fmt.Sprintf("Customer sentiment is stable (%+.1f%% week over week)", in.ChangePercent)
	}
	return fmt.Sprintf("%s; the forecast points to a %s trend.", head, in.ForecastTrend)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
