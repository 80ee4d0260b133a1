package trends

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/convolens/internal/lexical"
)

func seriesOf(vals ...float64) []Point {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Point, len(vals))
	for i, v := range vals {
		out[i] = Point{
			Date:              start.AddDate(0, 0, i).Format(DateLayout),
			AvgSentiment:      v,
			ConversationCount: 1,
		}
	}
	return out
}

func TestAggregateGroupsByDay(t *testing.T) {
	d1 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	obs := []Observation{
		{Date: d1, Sentiment: 0.8, Category: lexical.CategoryPositive},
		{Date: d1.Add(3 * time.Hour), Sentiment: 0.2, Category: lexical.CategoryNegative},
		{Date: d1.Add(5 * time.Hour), Sentiment: 0.5, Category: lexical.CategoryNeutral},
		{Date: d2, Sentiment: 0.6, Category: lexical.CategoryPositive},
	}

	pts := Aggregate(obs)
	require.Len(t, pts, 2)

	assert.Equal(t, "2024-05-01", pts[0].Date)
	assert.Equal(t, 1, pts[0].ConversationCount)
	assert.InDelta(t, 0.6, pts[0].AvgSentiment, 1e-9)

	assert.Equal(t, "2024-05-02", pts[1].Date)
	assert.Equal(t, 3, pts[1].ConversationCount)
	assert.InDelta(t, 0.5, pts[1].AvgSentiment, 1e-9)
	assert.Equal(t, 1, pts[1].PositiveCount)
	assert.Equal(t, 1, pts[1].NegativeCount)
	assert.Equal(t, 1, pts[1].NeutralCount)
}

func TestAggregateIsSparseAndDeterministic(t *testing.T) {
	obs := []Observation{
		{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Sentiment: 0.4},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Sentiment: 0.7},
	}
	a := Aggregate(obs)
	b := Aggregate(obs)
	assert.Equal(t, a, b)
	require.Len(t, a, 2)
	assert.Equal(t, "2024-01-01", a[0].Date)
	assert.Equal(t, "2024-01-10", a[1].Date)
	assert.Empty(t, Aggregate(nil))
}

func TestShortSeriesYieldEmptyResults(t *testing.T) {
	for n := 0; n < MinPoints; n++ {
		s := seriesOf(make([]float64, n)...)
		assert.Empty(t, Forecast(s, 7), "n=%d", n)
		assert.NotNil(t, Forecast(s, 7))
		assert.Empty(t, DetectAnomalies(s), "n=%d", n)
		in := Summarize(s, 7)
		assert.Equal(t, TrendInsufficientData, in.Trend)
		assert.Equal(t, n, in.DataPoints)
	}
}

func TestForecastConstantSeries(t *testing.T) {
	s := seriesOf(0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6)
	fc := Forecast(s, 7)
	require.Len(t, fc, 7)

	wantConf := []float64{0.95, 0.90, 0.85, 0.80, 0.75, 0.70, 0.65}
	for i, p := range fc {
		assert.InDelta(t, 0.6, p.PredictedSentiment, 1e-9)
		assert.InDelta(t, wantConf[i], p.Confidence, 1e-9)
	}
	assert.Equal(t, "2024-03-08", fc[0].Date)
	assert.Equal(t, "2024-03-14", fc[6].Date)
}

func TestForecastConfidenceFloorAndMonotonic(t *testing.T) {
	s := seriesOf(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8)
	fc := Forecast(s, 30)
	require.Len(t, fc, 30)
	prev := 1.0
	for _, p := range fc {
		assert.LessOrEqual(t, p.Confidence, prev)
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
		assert.GreaterOrEqual(t, p.PredictedSentiment, 0.0)
		assert.LessOrEqual(t, p.PredictedSentiment, 1.0)
		prev = p.Confidence
	}
	assert.Equal(t, 0.5, fc[29].Confidence)
	// rising series: last 7 average is 0.5, slope 0.1 per day, clamped at 1
	assert.InDelta(t, 0.6, fc[0].PredictedSentiment, 1e-9)
	assert.Equal(t, 1.0, fc[29].PredictedSentiment)
}

func TestForecastUsesTrailingFourteenPointsForSlope(t *testing.T) {
	vals := make([]float64, 0, 20)
	for i := 0; i < 6; i++ {
		vals = append(vals, 0.9) // ignored by the slope window
	}
	for i := 0; i < 14; i++ {
		vals = append(vals, 0.5)
	}
	fc := Forecast(seriesOf(vals...), 3)
	for _, p := range fc {
		assert.InDelta(t, 0.5, p.PredictedSentiment, 1e-9)
	}
}

func TestLinearSlope(t *testing.T) {
	assert.InDelta(t, 2.0, linearSlope([]float64{1, 3, 5, 7}), 1e-9)
	assert.InDelta(t, 0.0, linearSlope([]float64{4, 4, 4}), 1e-9)
	assert.Equal(t, 0.0, linearSlope([]float64{1}))
}

func TestDetectAnomaliesFlagsSpikeAndDrop(t *testing.T) {
	base := []float64{0.5, 0.52, 0.48, 0.5, 0.51, 0.49, 0.5}
	s := seriesOf(append(append([]float64{}, base...), 0.95)...)
	an := DetectAnomalies(s)
	require.Len(t, an, 1)
	assert.Equal(t, AnomalySpike, an[0].Type)
	assert.Equal(t, s[7].Date, an[0].Date)
	assert.InDelta(t, 0.5, an[0].Expected, 1e-9)
	assert.Greater(t, an[0].Deviation, 2.0)

	s = seriesOf(append(append([]float64{}, base...), 0.05)...)
	an = DetectAnomalies(s)
	require.Len(t, an, 1)
	assert.Equal(t, AnomalyDrop, an[0].Type)
	assert.Less(t, an[0].Deviation, -2.0)
}

func TestDetectAnomaliesZeroVarianceWindow(t *testing.T) {
	s := seriesOf(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.9, 0.5)
	an := DetectAnomalies(s)
	for _, a := range an {
		assert.False(t, math.IsInf(a.Deviation, 0))
		assert.False(t, math.IsNaN(a.Deviation))
	}
	// index 7 sits on a constant window and is skipped
	for _, a := range an {
		assert.NotEqual(t, s[7].Date, a.Date)
	}
}

func TestDetectAnomaliesThresholdIsStrict(t *testing.T) {
	base := []float64{0.4, 0.6, 0.45, 0.55, 0.5, 0.42, 0.58}
	m := mean(base)
	sd := stdDev(base, m)

	s := seriesOf(append(append([]float64{}, base...), m+2.0001*sd)...)
	assert.Len(t, DetectAnomalies(s), 1)

	s = seriesOf(append(append([]float64{}, base...), m+1.9999*sd)...)
	assert.Empty(t, DetectAnomalies(s))

	assert.False(t, isAnomalous(2.0))
	assert.False(t, isAnomalous(-2.0))
	assert.True(t, isAnomalous(2.0001))
}

func TestDetectAnomaliesNeverPanics(t *testing.T) {
	for n := MinPoints; n < 40; n++ {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(i%5) / 4
		}
		assert.NotPanics(t, func() {
			DetectAnomalies(seriesOf(vals...))
			Forecast(seriesOf(vals...), 14)
			Summarize(seriesOf(vals...), 7)
		})
	}
}

func TestSummarizeWithoutPriorWeekIsStable(t *testing.T) {
	in := Summarize(seriesOf(0.3, 0.4, 0.5, 0.6, 0.5, 0.4, 0.3, 0.35), 7)
	assert.Equal(t, TrendStable, in.Trend)
	assert.Equal(t, 0.0, in.ChangePercent)
	assert.Equal(t, in.RecentAverage, in.PreviousAverage)
	assert.Equal(t, 8, in.DataPoints)
}

func TestSummarizeImprovingAndDeclining(t *testing.T) {
	low := []float64{0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4}
	high := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

	in := Summarize(seriesOf(append(append([]float64{}, low...), high...)...), 7)
	assert.Equal(t, TrendImproving, in.Trend)
	assert.Equal(t, 25.0, in.ChangePercent)
	assert.Contains(t, in.Message, "improving")

	in = Summarize(seriesOf(append(append([]float64{}, high...), low...)...), 7)
	assert.Equal(t, TrendDeclining, in.Trend)
	assert.Equal(t, -20.0, in.ChangePercent)
	assert.Contains(t, in.Message, "declining")
}

func TestSummarizeForecastTrendIsIndependent(t *testing.T) {
	// flat previous vs recent week, but the recent week is falling
	vals := []float64{0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3}
	in := Summarize(seriesOf(vals...), 7)
	assert.Equal(t, TrendStable, in.Trend)
	assert.Equal(t, TrendDeclining, in.ForecastTrend)
	assert.Less(t, in.ForecastChangePercent, -5.0)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 12.3, round1(12.345))
	assert.Equal(t, -4.6, round1(-4.56))
}
