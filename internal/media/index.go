// Package media builds the per-source index of physical media files and
// resolves attachment filenames against it. One Index is built for the
// directory containing a text source and is read-only afterwards, except
// for the per-record use counters maintained by resolution.
package media

import (
	"sort"
	"strings"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// Kind classifies a media file or an omitted-media hint.
type Kind string

const (
	KindImage    Kind = "image"
	KindSticker  Kind = "sticker"
	KindGIF      Kind = "gif"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindMissing  Kind = "missing"

	// KindMedia is the catch-all omitted hint ("media omitted"). It is
	// never assigned to a physical record.
	KindMedia Kind = "media"
)

// Descriptor is one candidate media file co-located with a text source,
// as supplied by the ingestion layer.
type Descriptor struct {
	Path        string
	Size        int64
	ContentType string // declared MIME type, may be empty
	Load        LoadFunc
}

// Record is one physical media file candidate in an Index.
type Record struct {
	DisplayName string
	LookupKey   string
	Kind        Kind
	MIMEType    string
	Content     *Accessor

	usedCount int
}

// multimap is a key → ordered record list table. Keys iterate in
// insertion order, which the containment fallback in Resolve depends on.
type multimap struct {
	keys    []string
	entries map[string][]*Record
}

func newMultimap() *multimap {
	return &multimap{entries: make(map[string][]*Record)}
}

func (m *multimap) add(key string, r *Record) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = append(m.entries[key], r)
}

func (m *multimap) get(key string) []*Record {
	return m.entries[key]
}

// Index holds the lookup tables for one conversation source.
type Index struct {
	exact      *multimap // lowercased basename → records
	normalized *multimap // normalized file key → records
	all        []*Record // every record, ordered by display name
}

// BuildIndex indexes the given descriptors. Multimap entries keep the
// descriptor order; the full record list is sorted by display name.
func BuildIndex(descriptors []Descriptor) *Index {
	idx := &Index{
		exact:      newMultimap(),
		normalized: newMultimap(),
	}

	for _, d := range descriptors {
		displayName := textutil.BaseName(d.Path)
		kind := DetectKind(displayName)

		mimeType := d.ContentType
		if mimeType == "" {
			mimeType = GuessMIMEType(displayName, kind)
		}

		record := &Record{
			DisplayName: displayName,
			LookupKey:   textutil.NormalizeFileKey(displayName),
			Kind:        kind,
			MIMEType:    mimeType,
			Content:     NewAccessor(d.Load),
		}

		idx.exact.add(strings.ToLower(displayName), record)
		idx.normalized.add(record.LookupKey, record)
		idx.all = append(idx.all, record)
	}

	sort.SliceStable(idx.all, func(i, j int) bool {
		return idx.all[i].DisplayName < idx.all[j].DisplayName
	})

	return idx
}

// Len reports the number of indexed records.
func (idx *Index) Len() int {
	return len(idx.all)
}

// DetectKind classifies a filename by extension, with two filename-prefix
// overrides: a "gif-" prefix forces gif, and a "stk-" prefix on a .webp
// file marks an exported sticker.
func DetectKind(fileName string) Kind {
	lower := strings.ToLower(fileName)
	ext := textutil.Extension(fileName)

	if strings.HasPrefix(lower, "gif-") {
		return KindGIF
	}

	switch ext {
	case "jpg", "jpeg", "png", "heic", "bmp":
		return KindImage
	case "gif":
		return KindGIF
	}

	if ext == "webp" && strings.HasPrefix(lower, "stk-") {
		return KindSticker
	}

	switch ext {
	case "mp4", "mov", "webm", "mkv", "3gp":
		return KindVideo
	case "opus", "ogg", "aac", "m4a", "mp3", "wav":
		return KindAudio
	case "webp":
		return KindImage
	}

	return KindDocument
}

var mimeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"bmp":  "image/bmp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"3gp":  "video/3gpp",
	"opus": "audio/ogg",
	"ogg":  "audio/ogg",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"vcf":  "text/vcard",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
}

// GuessMIMEType resolves a MIME type from the static extension table,
// falling back to a kind/* wildcard and finally octet-stream.
func GuessMIMEType(fileName string, kind Kind) string {
	if mime, ok := mimeByExtension[textutil.Extension(fileName)]; ok {
		return mime
	}

	switch kind {
	case KindImage, KindSticker:
		return "image/*"
	case KindVideo:
		return "video/*"
	case KindGIF:
		return "image/gif"
	case KindAudio:
		return "audio/*"
	}
	return "application/octet-stream"
}

// NormalizeOmittedKind maps a free-form omitted-media hint ("video", "voice
// message", "GIF", ...) onto a Kind by substring matching. Unrecognized or
// absent hints map to KindMedia.
func NormalizeOmittedKind(raw string) Kind {
	value := strings.ToLower(strings.TrimSpace(textutil.CleanInvisible(raw)))
	switch {
	case value == "" || value == "media":
		return KindMedia
	case strings.Contains(value, "image"):
		return KindImage
	case strings.Contains(value, "video"):
		return KindVideo
	case strings.Contains(value, "audio"), strings.Contains(value, "voice"):
		return KindAudio
	case strings.Contains(value, "sticker"):
		return KindSticker
	case strings.Contains(value, "gif"):
		return KindGIF
	case strings.Contains(value, "document"), strings.Contains(value, "file"):
		return KindDocument
	}
	return KindMedia
}
