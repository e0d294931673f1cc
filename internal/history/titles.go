package history

import (
	"strings"
	"time"
)

const (
	titleTimeLayout   = "02/01/2006 15:04"
	fallbackTitleRune = 50
)

// NewChatTitle builds the default display title for a conversation started
// at t, embedding the DD/MM/YYYY HH:mm pattern the sidebar parses.
func NewChatTitle(t time.Time) string {
	return "Chat " + t.Format(titleTimeLayout)
}

// FallbackTitle derives a summary title from the first prompt of a
// conversation, used when fetching the real title from the backend fails.
func FallbackTitle(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	runes := []rune(trimmed)
	if len(runes) > fallbackTitleRune {
		return string(runes[:fallbackTitleRune])
	}
	return trimmed
}
