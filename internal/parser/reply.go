package parser

import (
	"regexp"
	"strings"

	"github.com/lanternworks/chatmerge/internal/chat"
	"github.com/lanternworks/chatmerge/internal/textutil"
)

// replyPatterns capture the reply target name from the first line of a
// quoted reply. Evaluated in order; the last capture group of the first
// matching pattern is the target.
var replyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^You replied to\s+(.+)$`),
	regexp.MustCompile(`(?i)^(.+?) replied to you$`),
	regexp.MustCompile(`(?i)^(.+?) replied to\s+(.+)$`),
	regexp.MustCompile(`(?i)^Replying to\s+(.+)$`),
}

var quoteEdges = regexp.MustCompile(`^["“]|["”]$`)

// ParseReplyContext inspects text for a reply-quotation header. It only
// applies when at least two lines remain: the first line names the
// target, the second carries the quoted text (surrounding quote marks
// stripped), and everything from the third line on is the real message
// body. Returns ok=false, leaving the text untouched, when no pattern
// matches.
func ParseReplyContext(text string) (ctx *chat.ReplyContext, body string, ok bool) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, "", false
	}

	firstLine := strings.TrimSpace(textutil.CleanInvisible(lines[0]))
	if firstLine == "" {
		return nil, "", false
	}

	targetName := ""
	for _, pattern := range replyPatterns {
		m := pattern.FindStringSubmatch(firstLine)
		if m == nil {
			continue
		}
		targetName = strings.TrimSpace(textutil.CleanInvisible(m[len(m)-1]))
		break
	}
	if targetName == "" {
		return nil, "", false
	}

	quoted := strings.TrimSpace(textutil.CleanInvisible(lines[1]))
	quoted = strings.TrimSpace(quoteEdges.ReplaceAllString(quoted, ""))

	body = strings.TrimSpace(strings.Join(lines[2:], "\n"))

	return &chat.ReplyContext{
		TargetName: targetName,
		QuotedText: quoted,
	}, body, true
}
