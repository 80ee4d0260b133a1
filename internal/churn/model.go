// Package churn implements the heuristic churn-risk model: five independent
// factor evaluators combined by fixed weights into a 0-100 score.
//
// The score is definitionally this heuristic. There is no trained model
// behind it, so every threshold below is a business rule.
package churn

import (
	"errors"
	"fmt"
	"math"
)

// Weights are the per-factor multipliers of the aggregate score.
type Weights struct {
	Sentiment     float64 `yaml:"sentiment" json:"sentiment"`
	RepeatContact float64 `yaml:"repeat_contact" json:"repeat_contact"`
	Resolution    float64 `yaml:"resolution" json:"resolution"`
	Keywords      float64 `yaml:"keywords" json:"keywords"`
	Duration      float64 `yaml:"duration" json:"duration"`
}

func (w Weights) Sum() float64 {
	return w.Sentiment + w.RepeatContact + w.Resolution + w.Keywords + w.Duration
}

// DefaultWeights returns 0.30/0.25/0.20/0.15/0.10.
func DefaultWeights() Weights {
	return Weights{
		Sentiment:     0.30,
		RepeatContact: 0.25,
		Resolution:    0.20,
		Keywords:      0.15,
		Duration:      0.10,
	}
}

// Model bundles the tunable parts of the scorer.
type Model struct {
	Weights         Weights `yaml:"weights" json:"weights"`
	HighThreshold   int     `yaml:"high_threshold" json:"high_threshold"`
	MediumThreshold int     `yaml:"medium_threshold" json:"medium_threshold"`

	ResolvedTerms   []string `yaml:"resolved_terms" json:"resolved_terms"`
	UnresolvedTerms []string `yaml:"unresolved_terms" json:"unresolved_terms"`
	HighRiskTerms   []string `yaml:"high_risk_terms" json:"high_risk_terms"`
	MediumRiskTerms []string `yaml:"medium_risk_terms" json:"medium_risk_terms"`

	// RepeatWindowDays bounds how far back similar contacts are counted.
	RepeatWindowDays int `yaml:"repeat_window_days" json:"repeat_window_days"`
}

func DefaultModel() Model {
	return Model{
		Weights:          DefaultWeights(),
		HighThreshold:    70,
		MediumThreshold:  40,
		ResolvedTerms:    []string{"resolved", "fixed", "solved", "thank you", "thanks", "appreciate"},
		UnresolvedTerms:  []string{"still", "not working", "unresolved", "frustrated", "disappointed"},
		HighRiskTerms:    []string{"cancel", "cancellation", "competitor", "switch", "leave"},
		MediumRiskTerms:  []string{"disappointed", "frustrated", "angry", "upset", "terrible"},
		RepeatWindowDays: 7,
	}
}

const weightTolerance = 1e-6

// Validate rejects weights that do not sum to 1.0 and inverted thresholds.
func (m Model) Validate() error {
	ws := []float64{m.Weights.Sentiment, m.Weights.RepeatContact, m.Weights.Resolution, m.Weights.Keywords, m.Weights.Duration}
	for _, w := range ws {
		if w < 0 {
			return errors.New("churn weights must be non-negative")
		}
	}
	if sum := m.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("churn weights must sum to 1.0, got %.4f", sum)
	}
	if m.MediumThreshold <= 0 || m.HighThreshold <= m.MediumThreshold || m.HighThreshold > 100 {
		return fmt.Errorf("invalid churn thresholds: medium=%d high=%d", m.MediumThreshold, m.HighThreshold)
	}
	if m.RepeatWindowDays <= 0 {
		return errors.New("repeat_window_days must be > 0")
	}
	return nil
}
