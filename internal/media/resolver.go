package media

import (
	"strings"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// Resolve maps an attachment filename to an indexed record. The fallback
// chain is: exact lowercased-basename lookup, normalized-key lookup, then
// a scan of all normalized keys for suffix containment in either
// direction. Each hit goes through the least-used tie-break so repeated
// identical filenames spread across duplicate physical files. Returns nil
// when nothing matches.
func (idx *Index) Resolve(requestedName string) *Record {
	cleanName := strings.TrimSpace(textutil.CleanInvisible(requestedName))
	if cleanName == "" {
		return nil
	}

	exactKey := strings.ToLower(textutil.BaseName(cleanName))
	normalizedKey := textutil.NormalizeFileKey(cleanName)

	if candidates := idx.exact.get(exactKey); len(candidates) > 0 {
		return pickLeastUsed(candidates)
	}

	if candidates := idx.normalized.get(normalizedKey); len(candidates) > 0 {
		return pickLeastUsed(candidates)
	}

	for _, key := range idx.normalized.keys {
		records := idx.normalized.get(key)
		if len(records) == 0 {
			continue
		}
		if strings.HasSuffix(key, normalizedKey) || strings.HasSuffix(normalizedKey, key) {
			return pickLeastUsed(records)
		}
	}

	return nil
}

// ResolveOmitted best-effort maps an "omitted" placeholder to a not-yet-used
// record, preferring one whose kind matches the hint. A gif hint also
// accepts video records (animated GIFs are commonly exported as short
// videos). Falls back to the first unused record, and nil when every
// record has been used. Only called when the omitted-mapping flag is on.
func (idx *Index) ResolveOmitted(hint Kind) *Record {
	var fallback *Record

	for _, record := range idx.all {
		if record.usedCount > 0 {
			continue
		}

		if fallback == nil {
			fallback = record
		}

		if hint == "" || hint == KindMedia {
			return pickLeastUsed([]*Record{record})
		}
		if record.Kind == hint {
			return pickLeastUsed([]*Record{record})
		}
		if hint == KindGIF && (record.Kind == KindGIF || record.Kind == KindVideo) {
			return pickLeastUsed([]*Record{record})
		}
	}

	if fallback != nil {
		return pickLeastUsed([]*Record{fallback})
	}
	return nil
}

// pickLeastUsed returns the candidate with the lowest use count (first
// wins on a tie) and increments its counter.
func pickLeastUsed(records []*Record) *Record {
	best := records[0]
	for _, record := range records {
		if record.usedCount < best.usedCount {
			best = record
		}
	}
	best.usedCount++
	return best
}
