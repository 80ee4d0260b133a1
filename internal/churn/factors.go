package churn

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Factor names. Recommended actions are keyed on these.
const (
	FactorNegativeSentiment = "negative_sentiment"
	FactorRepeatContact     = "repeat_contact"
	FactorUnresolvedIssue   = "unresolved_issue"
	FactorChurnKeywords     = "churn_keywords"
	FactorNegativeLanguage  = "negative_language"
	FactorLongConversation  = "long_conversation"
)

// Factor is one human-readable reason contributing to a churn score.
type Factor struct {
	Factor      string   `json:"factor"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Input is the joined conversation + analysis view the evaluators read.
type Input struct {
	ConversationID   string
	Transcript       string
	OverallSentiment float64
	// ExternalID is empty when the customer is unknown.
	ExternalID      string
	DurationMinutes *float64
	// SimilarContacts is the number of other recent conversations whose
	// external id matches ExternalIDFragment(ExternalID).
	SimilarContacts int
}

// ExternalIDFragment returns the last five characters of an external id, the
// customer-identity proxy used for repeat-contact matching.
func ExternalIDFragment(externalID string) string {
	r := []rune(strings.TrimSpace(externalID))
	if len(r) <= 5 {
		return string(r)
	}
	return string(r[len(r)-5:])
}

func sentimentScore(in Input, factors *[]Factor) int {
	s := in.OverallSentiment
	switch {
	case s < 0.3:
		*factors = append(*factors, Factor{
			Factor:      FactorNegativeSentiment,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Very negative customer sentiment (%.2f)", s),
		})
		return 100
	case s < 0.5:
		*factors = append(*factors, Factor{
			Factor:      FactorNegativeSentiment,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Negative customer sentiment (%.2f)", s),
		})
		return 70
	case s < 0.6:
		return 40
	default:
		return 10
	}
}

func repeatContactScore(in Input, factors *[]Factor) int {
	if strings.TrimSpace(in.ExternalID) == "" {
		return 30
	}
	n := in.SimilarContacts
	switch {
	case n >= 3:
		*factors = append(*factors, Factor{
			Factor:      FactorRepeatContact,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Customer contacted support %d other times recently", n),
		})
		return 100
	case n >= 2:
		*factors = append(*factors, Factor{
			Factor:      FactorRepeatContact,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Customer contacted support %d other times recently", n),
		})
		return 70
	case n == 1:
		return 40
	default:
		return 10
	}
}

func resolutionScore(m Model, text string, factors *[]Factor) int {
	resolved := len(matchTerms(text, m.ResolvedTerms)) > 0
	unresolved := len(matchTerms(text, m.UnresolvedTerms)) > 0
	switch {
	case resolved:
		return 10
	case unresolved:
		*factors = append(*factors, Factor{
			Factor:      FactorUnresolvedIssue,
			Severity:    SeverityHigh,
			Description: "Issue appears unresolved at the end of the conversation",
		})
		return 90
	default:
		return 50
	}
}

func keywordScore(m Model, text string, factors *[]Factor) int {
	if hits := matchTerms(text, m.HighRiskTerms); len(hits) > 0 {
		*factors = append(*factors, Factor{
			Factor:      FactorChurnKeywords,
			Severity:    SeverityHigh,
			Description: "Churn-related language detected: " + strings.Join(hits, ", "),
		})
		return 100
	}
	hits := matchTerms(text, m.MediumRiskTerms)
	switch {
	case len(hits) >= 2:
		*factors = append(*factors, Factor{
			Factor:      FactorNegativeLanguage,
			Severity:    SeverityMedium,
			Description: "Negative language detected: " + strings.Join(hits, ", "),
		})
		return 70
	case len(hits) == 1:
		return 40
	default:
		return 10
	}
}

func durationScore(minutes *float64, factors *[]Factor) int {
	d := 0.0
	if minutes != nil {
		d = *minutes
	}
	switch {
	case d > 30:
		*factors = append(*factors, Factor{
			Factor:      FactorLongConversation,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Long conversation (%.0f minutes)", d),
		})
		return 80
	case d > 15:
		return 50
	default:
		return 20
	}
}

// matchTerms returns the terms found in text, case-insensitively, in the
// order they are listed.
func matchTerms(text string, terms []string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(t)) {
			hits = append(hits, t)
		}
	}
	return hits
}
