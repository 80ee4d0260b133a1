package lexical

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Message is one speaker turn of a transcript.
type Message struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

const SpeakerUnknown = "unknown"

var (
	// [10:02] Agent: hello  |  Customer: hi
	linePattern  = regexp.MustCompile(`(?i)^\s*(?:\[([^\]]*)\]\s*)?(agent|customer|user|support)\s*:\s*(.*)$`)
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseMessages splits a transcript into messages. A JSON array of
// {speaker,text,timestamp} objects is used as is; anything else is read line
// by line. Parsing never fails: malformed JSON falls back to the line reader.
func ParseMessages(transcript string) []Message {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var msgs []Message
		if err := json.Unmarshal([]byte(trimmed), &msgs); err == nil {
			out := msgs[:0]
			for _, m := range msgs {
				if strings.TrimSpace(m.Text) == "" {
					continue
				}
				if m.Speaker == "" {
					m.Speaker = SpeakerUnknown
				}
				out = append(out, m)
			}
			return out
		}
	}

	var out []Message
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := linePattern.FindStringSubmatch(line); m != nil {
			out = append(out, Message{
				Speaker:   strings.ToLower(m[2]),
				Text:      strings.TrimSpace(m[3]),
				Timestamp: strings.TrimSpace(m[1]),
			})
			continue
		}
		out = append(out, Message{Speaker: SpeakerUnknown, Text: line})
	}
	return out
}

// clockMinutes parses H:MM or H:MM:SS into minutes since midnight.
func clockMinutes(ts string) (float64, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(ts))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss := 0
	if m[3] != "" {
		ss, _ = strconv.Atoi(m[3])
	}
	if mm > 59 || ss > 59 {
		return 0, false
	}
	return float64(h*60+mm) + float64(ss)/60, true
}
