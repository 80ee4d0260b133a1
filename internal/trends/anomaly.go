package trends

import "math"

const (
	anomalyWindow    = 7
	anomalyThreshold = 2.0
)

type AnomalyType string

const (
	AnomalySpike AnomalyType = "spike"
	AnomalyDrop  AnomalyType = "drop"
)

// Anomaly is a day whose sentiment deviates more than two standard deviations
// from the mean of the seven points before it.
type Anomaly struct {
	Date      string      `json:"date"`
	Value     float64     `json:"value"`
	Expected  float64     `json:"expected"`
	Deviation float64     `json:"deviation"`
	Type      AnomalyType `json:"type"`
}

// DetectAnomalies scans every point with a full trailing window. A window
// with zero variance never produces an anomaly.
func DetectAnomalies(series []Point) []Anomaly {
	out := []Anomaly{}
	if len(series) < MinPoints {
		return out
	}

	vals := values(series)
	for i := anomalyWindow; i < len(vals); i++ {
		window := vals[i-anomalyWindow : i]
		m := mean(window)
		sd := stdDev(window, m)
		if sd == 0 {
			continue
		}
		z := (vals[i] - m) / sd
		if !isAnomalous(z) {
			continue
		}
		typ := AnomalyDrop
		if vals[i] > m {
			typ = AnomalySpike
		}
		out = append(out, Anomaly{
			Date:      series[i].Date,
			Value:     vals[i],
			Expected:  m,
			Deviation: z,
			Type:      typ,
		})
	}
	return out
}

func isAnomalous(z float64) bool {
	return math.Abs(z) > anomalyThreshold
}

// stdDev is the population standard deviation of xs around m.
func stdDev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
