// Package ingest discovers chat-export sources on disk (loose folders or
// ZIP archives), pairs each text export with its co-located media
// descriptors, and runs them through the parser.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lanternworks/chatmerge/internal/media"
	"github.com/lanternworks/chatmerge/internal/textutil"
)

// Source is one text export plus the media descriptors considered
// co-located with it (same directory or below).
type Source struct {
	Path  string
	Title string
	Text  string
	Media []media.Descriptor
}

var (
	txtSuffix        = regexp.MustCompile(`(?i)\.txt$`)
	exportTitleMatch = regexp.MustCompile(`(?i)^WhatsApp Chat with\s+(.+)$`)
)

func isTextEntry(path string) bool {
	return txtSuffix.MatchString(path)
}

// DeriveTitle derives a conversation title from a text source path. The
// "WhatsApp Chat with X" filename convention yields X; the "_chat.txt"
// convention (media-inclusive exports) yields the containing directory
// name.
func DeriveTitle(path string) string {
	base := txtSuffix.ReplaceAllString(textutil.BaseName(path), "")
	cleaned := strings.TrimSpace(textutil.CleanInvisible(base))

	if m := exportTitleMatch.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}

	if cleaned == "_chat" {
		if dir := textutil.DirName(path); dir != "" {
			return textutil.BaseName(dir)
		}
	}

	if cleaned == "" {
		return "Untitled Chat"
	}
	return cleaned
}

// underDirectory reports whether path is dir itself or anything below it.
// A source in the tree root ("" directory) co-locates only with other
// root-level files.
func underDirectory(path, dir string) bool {
	if dir == "" {
		return !strings.Contains(path, "/")
	}
	return path == dir || strings.HasPrefix(path, dir+"/")
}

// DiscoverDir walks a directory tree and builds one Source per .txt file
// found, with every non-text file in the same directory (or below) as a
// media descriptor. Media bytes load lazily from disk.
func DiscoverDir(root string) ([]Source, error) {
	type entry struct {
		rel  string
		abs  string
		size int64
	}
	var entries []entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries degrade to absent
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}
		entries = append(entries, entry{rel: filepath.ToSlash(rel), abs: path, size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	var sources []Source
	for _, textEntry := range entries {
		if !isTextEntry(textEntry.rel) {
			continue
		}

		text, err := os.ReadFile(textEntry.abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", textEntry.abs, err)
		}

		dir := textutil.DirName(textEntry.rel)
		var descriptors []media.Descriptor
		for _, mediaEntry := range entries {
			if isTextEntry(mediaEntry.rel) || !underDirectory(mediaEntry.rel, dir) {
				continue
			}
			descriptors = append(descriptors, media.Descriptor{
				Path: mediaEntry.rel,
				Size: mediaEntry.size,
				Load: fileLoader(mediaEntry.abs),
			})
		}

		sources = append(sources, Source{
			Path:  textEntry.rel,
			Title: DeriveTitle(textEntry.rel),
			Text:  string(text),
			Media: descriptors,
		})
	}

	return sources, nil
}

// DiscoverFile builds a single Source from one .txt file, co-locating
// media from its containing directory.
func DiscoverFile(path string) (Source, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return Source{}, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var descriptors []media.Descriptor
	for _, e := range dirEntries {
		if e.IsDir() || isTextEntry(e.Name()) {
			continue
		}
		var size int64
		if info, infoErr := e.Info(); infoErr == nil {
			size = info.Size()
		}
		descriptors = append(descriptors, media.Descriptor{
			Path: e.Name(),
			Size: size,
			Load: fileLoader(filepath.Join(dir, e.Name())),
		})
	}

	return Source{
		Path:  path,
		Title: DeriveTitle(path),
		Text:  string(text),
		Media: descriptors,
	}, nil
}

// DiscoverZip reads a ZIP archive and builds one Source per .txt entry,
// with co-located non-text entries as media descriptors. Media bytes
// decompress lazily, reopening the archive on first access; the Accessor
// memoizes the result so each entry is decompressed at most once.
func DiscoverZip(path string) ([]Source, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	defer r.Close()

	type entry struct {
		name string
		size int64
	}
	var entries []entry
	textContents := make(map[string]string)

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		entries = append(entries, entry{name: f.Name, size: int64(f.UncompressedSize64)})

		if isTextEntry(f.Name) {
			content, err := readZipEntry(f)
			if err != nil {
				return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
			}
			textContents[f.Name] = string(content)
		}
	}

	var sources []Source
	for _, textEntry := range entries {
		if !isTextEntry(textEntry.name) {
			continue
		}

		dir := textutil.DirName(textEntry.name)
		var descriptors []media.Descriptor
		for _, mediaEntry := range entries {
			if isTextEntry(mediaEntry.name) || !underDirectory(mediaEntry.name, dir) {
				continue
			}
			descriptors = append(descriptors, media.Descriptor{
				Path: mediaEntry.name,
				Size: mediaEntry.size,
				Load: zipEntryLoader(path, mediaEntry.name),
			})
		}

		sources = append(sources, Source{
			Path:  path + "!" + textEntry.name,
			Title: DeriveTitle(textEntry.name),
			Text:  textContents[textEntry.name],
			Media: descriptors,
		})
	}

	return sources, nil
}

func fileLoader(path string) media.LoadFunc {
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	}
}

func zipEntryLoader(zipPath, entryName string) media.LoadFunc {
	return func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := zip.OpenReader(zipPath)
		if err != nil {
			return nil, fmt.Errorf("open zip %s: %w", zipPath, err)
		}
		defer r.Close()

		for _, f := range r.File {
			if f.Name == entryName {
				return readZipEntry(f)
			}
		}
		return nil, fmt.Errorf("zip entry %s not found in %s", entryName, zipPath)
	}
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
