// Package parser turns the raw text of one chat export into hydrated
// messages: segmentation into records, date-order inference, timestamp
// reconstruction, sender classification, and attachment/reply extraction.
//
// The export format has no fixed grammar; the patterns here are
// reverse-engineered from real-world export variants. Parsing is a pure,
// synchronous transformation: no condition aborts a source, malformed
// pieces degrade to system messages or null timestamps.
package parser

import (
	"regexp"
	"strings"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// RawMessageRecord is one logical message span before structural
// interpretation. Body accumulates continuation lines verbatim.
type RawMessageRecord struct {
	RawDate string
	RawTime string
	Body    string
}

// The two accepted message line-start surface forms:
//
//	D/M/Y, TIME - REST
//	[D/M/Y, TIME] REST
var (
	plainStartPattern   = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}),\s(.+?)\s-\s(.*)$`)
	bracketStartPattern = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}),\s(.+?)\]\s(.*)$`)
)

// SegmentMessages splits export text into raw message records. A line
// matching a date/time prefix starts a new record; any other line is
// folded into the open record's body with its newline, or dropped when
// no record is open yet. A continuation line that happens to look like a
// message start will be misparsed as one; the format has no escaping, so
// this is not correctable.
func SegmentMessages(text string) []RawMessageRecord {
	unified := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(unified, "\n"), "\n")

	var records []RawMessageRecord
	var current *RawMessageRecord

	for _, line := range lines {
		if rawDate, rawTime, rest, ok := parseMessageStart(line); ok {
			if current != nil {
				records = append(records, *current)
			}
			current = &RawMessageRecord{
				RawDate: rawDate,
				RawTime: rawTime,
				Body:    rest,
			}
			continue
		}

		if current == nil {
			continue
		}
		current.Body += "\n" + line
	}

	if current != nil {
		records = append(records, *current)
	}
	return records
}

// parseMessageStart matches a line against the two accepted start forms.
// Narrow no-break spaces are treated as ordinary spaces before matching.
func parseMessageStart(line string) (rawDate, rawTime, rest string, ok bool) {
	normalized := textutil.ReplaceNarrowSpaces(line)

	if m := plainStartPattern.FindStringSubmatch(normalized); m != nil {
		return m[1], m[2], m[3], true
	}
	if m := bracketStartPattern.FindStringSubmatch(normalized); m != nil {
		return m[1], m[2], m[3], true
	}
	return "", "", "", false
}
