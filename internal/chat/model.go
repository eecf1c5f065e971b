// Package chat defines the conversation data model and the cross-import
// merge/deduplication step.
package chat

import (
	"time"

	"github.com/lanternworks/chatmerge/internal/media"
)

// EmptySenderKey is the sentinel identity for messages whose sender name
// normalizes to nothing.
const EmptySenderKey = "__EMPTY__"

// EmptySenderLabel is the display label used for the empty-sender sentinel.
const EmptySenderLabel = "Unnamed Sender"

// ReplyContext is the quoted-reply header extracted from a message body.
type ReplyContext struct {
	TargetName string `json:"target_name"`
	QuotedText string `json:"quoted_text,omitempty"`
}

// Attachment links a message to a media record, or records that the
// declared media could not be found.
type Attachment struct {
	DisplayName string          `json:"display_name"`
	Kind        media.Kind      `json:"kind"`
	MIMEType    string          `json:"mime_type"`
	LookupKey   string          `json:"lookup_key"`
	Content     *media.Accessor `json:"-"` // nil when Missing
	Missing     bool            `json:"missing"`
}

// Message is the durable unit of the conversation model. Sequence is
// assigned once at hydration and is the only total order guaranteed when
// timestamps are absent or collide.
type Message struct {
	Sequence     int64         `json:"sequence"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"` // nil when date/time text failed to parse
	RawDate      string        `json:"raw_date"`
	RawTime      string        `json:"raw_time"`
	Sender       string        `json:"sender,omitempty"`
	SenderKey    string        `json:"sender_key,omitempty"`
	IsSystem     bool          `json:"is_system"`
	Text         string        `json:"text"`
	Attachment   *Attachment   `json:"attachment,omitempty"`
	ReplyContext *ReplyContext `json:"reply_context,omitempty"`
	SearchIndex  string        `json:"-"`
}

// Participant is one non-system sender in a conversation with their
// message count.
type Participant struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ParsedConversation is the transient per-source parse output, before
// merging with other sources that share the same identity.
type ParsedConversation struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Messages []*Message `json:"messages"`
}

// Conversation is the merged, deduplicated, canonically ordered result.
type Conversation struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	Messages             []*Message    `json:"messages"`
	Participants         []Participant `json:"participants"`
	DefaultSelfSenderKey string        `json:"default_self_sender_key,omitempty"`
	LastTimestamp        *time.Time    `json:"last_timestamp,omitempty"`
	LastSequence         int64         `json:"last_sequence"`
	Preview              string        `json:"preview"`
}

// AsParsed re-wraps a merged conversation so it can participate in a
// later merge alongside freshly parsed sources.
func (c *Conversation) AsParsed() *ParsedConversation {
	return &ParsedConversation{ID: c.ID, Title: c.Title, Messages: c.Messages}
}
