// Package textutil holds the string normalization helpers shared by the
// parsing pipeline: invisible-mark stripping, BOM removal, path basename
// handling, and the normalized file key used for fuzzy media matching.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// invisibleMarks matches zero-width joiners, directional marks and
	// bidi isolate/embedding controls that chat exports sprinkle into
	// names and filenames.
	invisibleMarks = regexp.MustCompile(`[\x{200c}\x{200d}\x{200e}\x{200f}\x{202a}-\x{202e}\x{2066}-\x{2069}]`)

	nonKeyRunes = regexp.MustCompile(`[^\w.\-]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// CleanInvisible removes bidi and zero-width formatting marks from s.
func CleanInvisible(s string) string {
	return invisibleMarks.ReplaceAllString(s, "")
}

// StripBOM removes a leading UTF-8 byte-order mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// ReplaceNarrowSpaces turns narrow no-break spaces (U+202F) into ordinary
// spaces. Some exports use them between time and meridiem marker.
func ReplaceNarrowSpaces(s string) string {
	return strings.ReplaceAll(s, " ", " ")
}

// CollapseWhitespace folds runs of whitespace into single spaces.
func CollapseWhitespace(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}

// BaseName returns the final path component, treating both slash styles
// as separators.
func BaseName(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	if i := strings.LastIndex(normalized, "/"); i != -1 {
		return normalized[i+1:]
	}
	return normalized
}

// DirName returns the directory part of path, or "" for a bare filename.
func DirName(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	if i := strings.LastIndex(normalized, "/"); i != -1 {
		return normalized[:i]
	}
	return ""
}

// Extension returns the lowercased extension of the basename without the
// dot, or "" when there is none.
func Extension(name string) string {
	base := BaseName(name)
	dot := strings.LastIndex(base, ".")
	if dot == -1 || dot == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}

// NormalizeFileKey reduces a filename to its fuzzy lookup form: basename,
// invisible marks stripped, NFKD-folded, every rune outside [\w.-]
// removed, lowercased. Two spellings of the same attachment name should
// land on the same key.
func NormalizeFileKey(name string) string {
	key := CleanInvisible(BaseName(name))
	key = norm.NFKD.String(key)
	key = nonKeyRunes.ReplaceAllString(key, "")
	return strings.ToLower(key)
}
