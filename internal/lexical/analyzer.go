// Package lexical scores transcripts with a word-valence lexicon and derives
// message-level metrics. It is deterministic and has no external dependencies.
package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is the coarse sentiment class stored next to the label so that
// downstream aggregation never has to re-derive it from label text.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
)

const (
	LabelVeryPositive = "Very Positive"
	LabelPositive     = "Positive"
	LabelNeutral      = "Neutral"
	LabelNegative     = "Negative"
	LabelVeryNegative = "Very Negative"
)

// Result is the lexical analysis of one transcript.
type Result struct {
	RawScore         int      `json:"raw_score"`
	SentimentScore   float64  `json:"sentiment_score"`   // 0..100
	OverallSentiment float64  `json:"overall_sentiment"` // 0..1
	Label            string   `json:"sentiment_label"`
	Category         Category `json:"sentiment_category"`
	PositiveMessages int      `json:"positive_messages"`
	NegativeMessages int      `json:"negative_messages"`
	NeutralMessages  int      `json:"neutral_messages"`
	MessageCount     int      `json:"message_count"`
	AvgMessageLength float64  `json:"avg_message_length"`
	AvgResponseTime  float64  `json:"avg_response_time"` // minutes
}

// Analyze runs the full lexical pass over a transcript.
func Analyze(transcript string) Result {
	raw := Score(transcript)
	normalized := clamp(50+float64(raw)*5, 0, 100)
	label := LabelFor(raw)

	res := Result{
		RawScore:         raw,
		SentimentScore:   normalized,
		OverallSentiment: normalized / 100,
		Label:            label,
		Category:         CategoryFor(label),
	}

	msgs := ParseMessages(transcript)
	res.MessageCount = len(msgs)
	if len(msgs) == 0 {
		return res
	}

	totalLen := 0
	for _, m := range msgs {
		switch s := Score(m.Text); {
		case s > 0:
			res.PositiveMessages++
		case s < 0:
			res.NegativeMessages++
		default:
			res.NeutralMessages++
		}
		totalLen += utf8.RuneCountInString(m.Text)
	}
	res.AvgMessageLength = float64(totalLen) / float64(len(msgs))
	res.AvgResponseTime = averageResponseTime(msgs)
	return res
}

// Score returns the signed lexicon score of text: the sum of token valences,
// with the valence of a token flipped when the preceding token is a negator.
func Score(text string) int {
	tokens := tokenize(text)
	score := 0
	for i, tok := range tokens {
		v, ok := afinn[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if _, neg := negators[tokens[i-1]]; neg {
				v = -v
			}
		}
		score += v
	}
	return score
}

// LabelFor maps a raw (unnormalized) score to one of five labels.
func LabelFor(raw int) string {
	switch {
	case raw > 2:
		return LabelVeryPositive
	case raw > 0:
		return LabelPositive
	case raw < -2:
		return LabelVeryNegative
	case raw < 0:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// CategoryFor collapses a label into its category.
func CategoryFor(label string) Category {
	switch label {
	case LabelVeryPositive, LabelPositive:
		return CategoryPositive
	case LabelVeryNegative, LabelNegative:
		return CategoryNegative
	default:
		return CategoryNeutral
	}
}

func averageResponseTime(msgs []Message) float64 {
	total := 0.0
	pairs := 0
	for i := 1; i < len(msgs); i++ {
		prev, ok := clockMinutes(msgs[i-1].Timestamp)
		if !ok {
			continue
		}
		cur, ok := clockMinutes(msgs[i].Timestamp)
		if !ok {
			continue
		}
		gap := cur - prev
		if gap < 0 {
			continue
		}
		total += gap
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
