package churn

import "math"

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// SubScores are the five 0-100 evaluator outputs.
type SubScores struct {
	Sentiment     int `json:"sentiment"`
	RepeatContact int `json:"repeat_contact"`
	Resolution    int `json:"resolution"`
	Keywords      int `json:"keywords"`
	Duration      int `json:"duration"`
}

// Result is the churn assessment of one conversation.
type Result struct {
	ConversationID string    `json:"conversation_id"`
	Score          int       `json:"churn_risk_score"`
	Level          Level     `json:"risk_level"`
	Factors        []Factor  `json:"risk_factors"`
	Actions        []string  `json:"recommended_actions"`
	SubScores      SubScores `json:"sub_scores"`
}

// Scorer evaluates conversations against a Model.
type Scorer struct {
	model Model
}

func NewScorer(m Model) *Scorer {
	return &Scorer{model: m}
}

func (s *Scorer) Model() Model { return s.model }

// Evaluate runs the evaluators in their fixed order (sentiment, repeat
// contact, resolution, keywords, duration) and aggregates the result.
func (s *Scorer) Evaluate(in Input) Result {
	factors := make([]Factor, 0, 5)
	sub := SubScores{
		Sentiment:     sentimentScore(in, &factors),
		RepeatContact: repeatContactScore(in, &factors),
		Resolution:    resolutionScore(s.model, in.Transcript, &factors),
		Keywords:      keywordScore(s.model, in.Transcript, &factors),
		Duration:      durationScore(in.DurationMinutes, &factors),
	}

	score := Aggregate(s.model.Weights, sub)
	return Result{
		ConversationID: in.ConversationID,
		Score:          score,
		Level:          s.Level(score),
		Factors:        factors,
		Actions:        s.Actions(score, factors),
		SubScores:      sub,
	}
}

// Aggregate computes round(sum(weight_i * subscore_i)).
func Aggregate(w Weights, sub SubScores) int {
	total := w.Sentiment*float64(sub.Sentiment) +
		w.RepeatContact*float64(sub.RepeatContact) +
		w.Resolution*float64(sub.Resolution) +
		w.Keywords*float64(sub.Keywords) +
		w.Duration*float64(sub.Duration)
	// snap float noise (0.30*100 = 30.000000000000004) before rounding halves
	total = math.Round(total*1e6) / 1e6
	return int(math.Round(total))
}

func (s *Scorer) Level(score int) Level {
	switch {
	case score >= s.model.HighThreshold:
		return LevelHigh
	case score >= s.model.MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

var factorActions = []struct {
	factor  string
	actions []string
}{
	{FactorChurnKeywords, []string{"retention_offer", "executive_review"}},
	{FactorRepeatContact, []string{"root_cause_analysis", "priority_handling"}},
	{FactorUnresolvedIssue, []string{"follow_up_call", "issue_escalation"}},
	{FactorNegativeSentiment, []string{"sentiment_recovery", "customer_feedback"}},
}

// Actions derives recommended action codes from the factors that fired.
func (s *Scorer) Actions(score int, factors []Factor) []string {
	present := make(map[string]bool, len(factors))
	for _, f := range factors {
		present[f.Factor] = true
	}

	actions := []string{}
	seen := map[string]bool{}
	add := func(codes ...string) {
		for _, c := range codes {
			if !seen[c] {
				seen[c] = true
				actions = append(actions, c)
			}
		}
	}

	for _, fa := range factorActions {
		if present[fa.factor] {
			add(fa.actions...)
		}
	}

	high := score >= s.model.HighThreshold
	factorDriven := len(actions) > 0
	if high {
		add("escalate_to_senior", "proactive_outreach")
		if !factorDriven {
			add("manager_review")
		}
	}
	return actions
}
