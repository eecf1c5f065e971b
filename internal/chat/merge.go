package chat

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// signatureSeparator joins signature fields. U+241F (symbol for unit
// separator) keeps the collision probability with real message text low.
const signatureSeparator = "|␟|"

// NormalizeConversationKey derives the merge identity of a conversation
// from its title: trimmed, lowercased, internal whitespace collapsed.
func NormalizeConversationKey(title string) string {
	return textutil.CollapseWhitespace(strings.ToLower(strings.TrimSpace(title)))
}

// Signature computes the exact-duplicate key for a message. Two messages
// with the same signature are considered the same message seen through
// different imports. Note the sequence is deliberately not part of the
// key; two genuinely distinct messages with identical sender, text,
// timestamp state and no attachment will collapse into one.
func Signature(m *Message) string {
	first := m.RawDate
	if m.Timestamp != nil {
		first = strconv.FormatInt(m.Timestamp.UnixMilli(), 10)
	}

	attachmentKey := ""
	if m.Attachment != nil {
		attachmentKey = m.Attachment.LookupKey
		if attachmentKey == "" {
			attachmentKey = m.Attachment.DisplayName
		}
	}

	system := "0"
	if m.IsSystem {
		system = "1"
	}

	return strings.Join([]string{
		first,
		m.RawTime,
		m.SenderKey,
		strings.TrimSpace(m.Text),
		attachmentKey,
		system,
	}, signatureSeparator)
}

// Combine merges conversations sharing a normalized title into single
// conversations: concatenates their messages, drops exact duplicates by
// first-seen signature, restores canonical order, and recomputes the
// derived summary fields. Groups that dedupe to zero messages are
// dropped. The result is ordered most-recent first.
//
// Combine is associative and commutative over message sets, so batches
// may be merged in any order, including re-merging previously merged
// conversations (see Conversation.AsParsed).
func Combine(conversations []*ParsedConversation) []*Conversation {
	type group struct {
		id       string
		title    string
		messages []*Message
	}

	grouped := make(map[string]*group)
	var order []string

	for _, conversation := range conversations {
		if conversation == nil || len(conversation.Messages) == 0 {
			continue
		}

		key := NormalizeConversationKey(conversation.Title)
		g, ok := grouped[key]
		if !ok {
			g = &group{id: key, title: conversation.Title}
			grouped[key] = g
			order = append(order, key)
		}
		g.messages = append(g.messages, conversation.Messages...)
	}

	var merged []*Conversation
	for _, key := range order {
		g := grouped[key]
		if c := finalize(g.id, g.title, g.messages); c != nil {
			merged = append(merged, c)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return conversationMoreRecent(merged[i], merged[j])
	})
	return merged
}

// finalize dedupes, orders and summarizes one identity group.
func finalize(id, title string, messages []*Message) *Conversation {
	seen := make(map[string]struct{}, len(messages))
	deduped := make([]*Message, 0, len(messages))

	for _, message := range messages {
		signature := Signature(message)
		if _, ok := seen[signature]; ok {
			continue
		}
		seen[signature] = struct{}{}
		deduped = append(deduped, message)
	}

	if len(deduped) == 0 {
		return nil
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return messageLess(deduped[i], deduped[j])
	})

	participants := deriveParticipants(deduped)
	last := deduped[len(deduped)-1]

	return &Conversation{
		ID:                   id,
		Title:                title,
		Messages:             deduped,
		Participants:         participants,
		DefaultSelfSenderKey: pickDefaultSelfSenderKey(participants),
		LastTimestamp:        last.Timestamp,
		LastSequence:         last.Sequence,
		Preview:              buildPreview(last),
	}
}

// messageLess orders by timestamp when both sides have unequal non-null
// timestamps, and by sequence otherwise. Sequence is unique, so the
// order is total even with null or colliding timestamps.
func messageLess(a, b *Message) bool {
	if a.Timestamp != nil && b.Timestamp != nil && !a.Timestamp.Equal(*b.Timestamp) {
		return a.Timestamp.Before(*b.Timestamp)
	}
	return a.Sequence < b.Sequence
}

func conversationMoreRecent(a, b *Conversation) bool {
	at, bt := timestampMilli(a.LastTimestamp), timestampMilli(b.LastTimestamp)
	if at != bt {
		return at > bt
	}
	return a.LastSequence > b.LastSequence
}

func timestampMilli(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func deriveParticipants(messages []*Message) []Participant {
	counts := make(map[string]*Participant)
	var order []string

	for _, message := range messages {
		if message.IsSystem {
			continue
		}

		key := message.SenderKey
		if key == "" {
			key = EmptySenderKey
		}

		p, ok := counts[key]
		if !ok {
			label := message.Sender
			if key == EmptySenderKey {
				label = EmptySenderLabel
			}
			p = &Participant{Key: key, Label: label}
			counts[key] = p
			order = append(order, key)
		}
		p.Count++
	}

	participants := make([]Participant, 0, len(order))
	for _, key := range order {
		participants = append(participants, *counts[key])
	}

	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Count != participants[j].Count {
			return participants[i].Count > participants[j].Count
		}
		return participants[i].Label < participants[j].Label
	})
	return participants
}

// pickDefaultSelfSenderKey prefers the empty-sender sentinel (exports of
// one's own chat leave the self side unnamed in some variants), falling
// back to the busiest participant.
func pickDefaultSelfSenderKey(participants []Participant) string {
	if len(participants) == 0 {
		return ""
	}
	for _, p := range participants {
		if p.Key == EmptySenderKey {
			return EmptySenderKey
		}
	}
	return participants[0].Key
}

func buildPreview(last *Message) string {
	if last == nil {
		return ""
	}
	if last.Attachment != nil && last.Attachment.DisplayName != "" {
		return "Attachment: " + last.Attachment.DisplayName
	}
	trimmed := strings.TrimSpace(textutil.CollapseWhitespace(last.Text))
	if trimmed == "" {
		return "(empty)"
	}
	return trimmed
}
