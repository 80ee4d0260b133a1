// Package trends turns per-conversation sentiment into a daily series and
// runs the forecaster, the anomaly detector and the insight summarizer on it.
//
// All functions here are pure. Series are sparse: days without conversations
// have no point, so callers must not assume the dates are contiguous.
package trends

import (
	"sort"
	"time"

	"github.com/yoockh/convolens/internal/lexical"
)

// DateLayout is the calendar-day format used for trend dates.
const DateLayout = "2006-01-02"

// MinPoints is the history length required by the forecaster, the anomaly
// detector and the insight summarizer.
const MinPoints = 7

// Observation is one analysed conversation placed on the calendar.
type Observation struct {
	Date      time.Time
	Sentiment float64
	Category  lexical.Category
}

// Point is one day's aggregated sentiment.
type Point struct {
	Date              string  `json:"date"`
	AvgSentiment      float64 `json:"avg_sentiment"`
	ConversationCount int     `json:"conversation_count"`
	PositiveCount     int     `json:"positive_count"`
	NegativeCount     int     `json:"negative_count"`
	NeutralCount      int     `json:"neutral_count"`
}

// Aggregate groups observations by UTC calendar day, ordered by date.
func Aggregate(obs []Observation) []Point {
	type acc struct {
		sum float64
		p   Point
	}
	days := map[string]*acc{}
	for _, o := range obs {
		key := o.Date.UTC().Format(DateLayout)
		a, ok := days[key]
		if !ok {
			a = &acc{p: Point{Date: key}}
			days[key] = a
		}
		a.sum += o.Sentiment
		a.p.ConversationCount++
		switch o.Category {
		case lexical.CategoryPositive:
			a.p.PositiveCount++
		case lexical.CategoryNegative:
			a.p.NegativeCount++
		default:
			a.p.NeutralCount++
		}
	}

	out := make([]Point, 0, len(days))
	for _, a := range days {
		a.p.AvgSentiment = a.sum / float64(a.p.ConversationCount)
		out = append(out, a.p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func values(series []Point) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.AvgSentiment
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
