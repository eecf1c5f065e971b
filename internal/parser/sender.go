package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// maxSenderLength bounds a plausible sender name. Message bodies that
// happen to contain ": " far into the text would otherwise produce
// absurd "senders".
const maxSenderLength = 80

// SplitSenderAndText splits a record body into sender name and remaining
// text at the first ": " separator. Bodies without the separator, or
// with an oversized candidate name, are system messages and keep the
// full body as text.
func SplitSenderAndText(body string) (sender, text string, isSystem bool) {
	separator := strings.Index(body, ": ")
	if separator == -1 {
		return "", body, true
	}

	candidate := strings.TrimSpace(textutil.CleanInvisible(body[:separator]))
	if utf8.RuneCountInString(candidate) > maxSenderLength {
		return "", body, true
	}

	return candidate, body[separator+2:], false
}
