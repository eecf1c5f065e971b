package parser

import (
	"strings"
	"sync/atomic"

	"github.com/lanternworks/chatmerge/internal/chat"
	"github.com/lanternworks/chatmerge/internal/media"
	"github.com/lanternworks/chatmerge/internal/textutil"
)

// Session owns the sequence counter for one parse run. Sequences are the
// authoritative tie-break for message ordering; the counter is atomic so
// sources may be hydrated concurrently within a session, and a fresh
// session makes a run reproducible.
type Session struct {
	sequence atomic.Int64
}

// NewSession returns a session whose first issued sequence is 0.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) next() int64 {
	return s.sequence.Add(1) - 1
}

// Options holds the parse feature flags.
type Options struct {
	// MapOmittedMedia enables best-effort resolution of "omitted" media
	// placeholders against unused index records. Off by default: matching
	// without a filename has no reliable correctness basis.
	MapOmittedMedia bool
}

// ParseSource parses the full text of one export into a conversation.
// Returns nil when the text yields no message records. The media index
// may be nil for a source with no co-located media.
func ParseSource(text, title string, index *media.Index, session *Session, opts Options) *chat.ParsedConversation {
	records := SegmentMessages(textutil.StripBOM(text))
	if len(records) == 0 {
		return nil
	}

	order := InferDateOrder(records)

	messages := make([]*chat.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, hydrateMessage(record, order, index, session, opts))
	}

	return &chat.ParsedConversation{
		ID:       chat.NormalizeConversationKey(title),
		Title:    title,
		Messages: messages,
	}
}

// hydrateMessage runs one raw record through the classification and
// extraction stages and assembles the durable message. No input causes
// the record to be dropped; parse failures degrade to system messages or
// null timestamps.
func hydrateMessage(record RawMessageRecord, order DateOrder, index *media.Index, session *Session, opts Options) *chat.Message {
	senderRaw, textRaw, isSystem := SplitSenderAndText(record.Body)

	attachmentInfo := ExtractAttachmentInfo(textRaw)
	replyContext, replyBody, hasReply := ParseReplyContext(attachmentInfo.Remainder)

	messageText := attachmentInfo.Remainder
	if hasReply {
		messageText = replyBody
	}

	attachment := buildAttachment(attachmentInfo, index, opts)

	senderKey, sender := "", ""
	if !isSystem {
		senderKey = senderRaw
		if senderKey == "" {
			senderKey = chat.EmptySenderKey
		}
		if senderKey == chat.EmptySenderKey {
			sender = chat.EmptySenderLabel
		} else {
			sender = senderRaw
		}
	}

	message := &chat.Message{
		Sequence:     session.next(),
		RawDate:      record.RawDate,
		RawTime:      record.RawTime,
		Sender:       sender,
		SenderKey:    senderKey,
		IsSystem:     isSystem,
		Text:         messageText,
		Attachment:   attachment,
		ReplyContext: replyContext,
	}

	if ts, ok := ParseDateTime(record.RawDate, record.RawTime, order); ok {
		message.Timestamp = &ts
	}

	message.SearchIndex = buildSearchIndex(message)
	return message
}

// buildAttachment resolves an extracted declaration against the media
// index. A named attachment without a match degrades to an unresolved
// document; an unmapped omitted placeholder degrades to missing media.
func buildAttachment(info AttachmentInfo, index *media.Index, opts Options) *chat.Attachment {
	if info.FileName != "" {
		if index != nil {
			if record := index.Resolve(info.FileName); record != nil {
				return &chat.Attachment{
					DisplayName: record.DisplayName,
					Kind:        record.Kind,
					MIMEType:    record.MIMEType,
					LookupKey:   record.LookupKey,
					Content:     record.Content,
				}
			}
		}
		return &chat.Attachment{
			DisplayName: info.FileName,
			Kind:        media.KindDocument,
			MIMEType:    "application/octet-stream",
			LookupKey:   textutil.NormalizeFileKey(info.FileName),
			Missing:     true,
		}
	}

	if !info.Omitted {
		return nil
	}

	if opts.MapOmittedMedia && index != nil {
		if record := index.ResolveOmitted(info.OmittedKind); record != nil {
			return &chat.Attachment{
				DisplayName: record.DisplayName,
				Kind:        record.Kind,
				MIMEType:    record.MIMEType,
				LookupKey:   record.LookupKey,
				Content:     record.Content,
			}
		}
	}

	return &chat.Attachment{
		DisplayName: "Media omitted",
		Kind:        media.KindMissing,
		LookupKey:   "omitted",
		Missing:     true,
	}
}

// buildSearchIndex precomputes the lowercase haystack used by message
// search: every searchable field space-joined.
func buildSearchIndex(m *chat.Message) string {
	attachmentLabel := ""
	if m.Attachment != nil {
		attachmentLabel = m.Attachment.DisplayName
	}
	replyTarget, replyQuoted := "", ""
	if m.ReplyContext != nil {
		replyTarget = m.ReplyContext.TargetName
		replyQuoted = m.ReplyContext.QuotedText
	}

	return strings.ToLower(strings.Join([]string{
		m.Sender,
		m.Text,
		m.RawDate,
		m.RawTime,
		attachmentLabel,
		replyTarget,
		replyQuoted,
	}, " "))
}
