package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lanternworks/chatmerge/internal/media"
	"github.com/lanternworks/chatmerge/internal/textutil"
)

// AttachmentInfo is the result of scanning message text for an
// attachment declaration. Remainder is the text left after removing the
// declaration (the caption, or the whole text when nothing matched).
type AttachmentInfo struct {
	FileName    string
	Remainder   string
	Omitted     bool
	OmittedKind media.Kind
}

var (
	fileAttachedPattern  = regexp.MustCompile(`(?is)^([^\n]+?)\s*\(file attached\)(.*)$`)
	attachedTokenPattern = regexp.MustCompile(`(?i)<attached:\s*([^>]+)>`)
	omittedLinePattern   = regexp.MustCompile(`(?i)^<[^>]*omitted>$`)
	omittedHintPattern   = regexp.MustCompile(`(?i)^<([^>]+?)\s+omitted>$`)
	legacyOmittedPattern = regexp.MustCompile(`(?i)^(image|video|audio|gif|sticker|document)\s+omitted$`)
)

// attachmentRules is the priority-ordered extractor cascade. The first
// rule that matches wins; the order is a contract, not an accident.
var attachmentRules = []func(string) (AttachmentInfo, bool){
	extractFileAttached,
	extractAttachedToken,
	extractOmittedPlaceholder,
}

// ExtractAttachmentInfo scans message text (invisible marks stripped,
// trailing whitespace trimmed) through the attachment rule cascade.
func ExtractAttachmentInfo(text string) AttachmentInfo {
	cleaned := strings.TrimRightFunc(textutil.CleanInvisible(text), unicode.IsSpace)

	for _, rule := range attachmentRules {
		if info, ok := rule(cleaned); ok {
			return info
		}
	}

	return AttachmentInfo{Remainder: strings.TrimSpace(cleaned)}
}

// extractFileAttached handles "NAME (file attached)" with an optional
// trailing caption on the following lines.
func extractFileAttached(text string) (AttachmentInfo, bool) {
	m := fileAttachedPattern.FindStringSubmatch(text)
	if m == nil {
		return AttachmentInfo{}, false
	}
	return AttachmentInfo{
		FileName:  strings.TrimSpace(textutil.CleanInvisible(m[1])),
		Remainder: strings.TrimSpace(m[2]),
	}, true
}

// extractAttachedToken handles an inline "<attached: NAME>" token
// anywhere in the text; the token is removed and the rest kept.
func extractAttachedToken(text string) (AttachmentInfo, bool) {
	loc := attachedTokenPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return AttachmentInfo{}, false
	}

	fileName := text[loc[2]:loc[3]]
	remainder := text[:loc[0]] + text[loc[1]:]

	return AttachmentInfo{
		FileName:  strings.TrimSpace(textutil.CleanInvisible(fileName)),
		Remainder: strings.TrimSpace(remainder),
	}, true
}

// extractOmittedPlaceholder handles a first line that is an "omitted"
// placeholder, either the bracketed form "<... omitted>" (with a
// free-form kind hint) or the legacy bare "image omitted" form. The
// remaining lines become the caption.
func extractOmittedPlaceholder(text string) (AttachmentInfo, bool) {
	lines := strings.Split(text, "\n")
	firstLine := strings.TrimSpace(lines[0])

	legacy := legacyOmittedPattern.FindStringSubmatch(firstLine)
	if !omittedLinePattern.MatchString(firstLine) && legacy == nil {
		return AttachmentInfo{}, false
	}

	hint := ""
	if m := omittedHintPattern.FindStringSubmatch(firstLine); m != nil {
		hint = m[1]
	} else if legacy != nil {
		hint = legacy[1]
	}

	return AttachmentInfo{
		Remainder:   strings.TrimSpace(strings.Join(lines[1:], "\n")),
		Omitted:     true,
		OmittedKind: media.NormalizeOmittedKind(hint),
	}, true
}
