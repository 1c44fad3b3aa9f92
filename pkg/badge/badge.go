// Package badge publishes the aggregate review total to user-visible sinks.
package badge

import (
	"log"
	"strconv"
)

// Badge is a surface that can display a short text. An empty string clears
// the badge rather than rendering "0".
type Badge interface {
	SetText(text string)
}

// Text renders the badge text for a total: empty when there is nothing
// pending, otherwise the decimal count.
func Text(total int) string {
	if total <= 0 {
		return ""
	}
	return strconv.Itoa(total)
}

// LogBadge writes badge updates to the process log. It is the default sink
// and doubles as the audit trail for cycle outcomes.
type LogBadge struct {
	last string
}

func NewLogBadge() *LogBadge {
	return &LogBadge{}
}

func (b *LogBadge) SetText(text string) {
	if text == b.last {
		return
	}
	b.last = text
	if text == "" {
		log.Printf("badge cleared")
		return
	}
	log.Printf("badge set to %s", text)
}

// Multi fans a badge update out to several sinks.
type Multi []Badge

func (m Multi) SetText(text string) {
	for _, b := range m {
		b.SetText(text)
	}
}
