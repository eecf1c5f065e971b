package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"WhatsApp Chat with Alice.txt", "Alice"},
		{"exports/WhatsApp Chat with Family Group.txt", "Family Group"},
		{"whatsapp chat with bob.txt", "bob"},
		{"Trip Planning/_chat.txt", "Trip Planning"},
		{"_chat.txt", "_chat"},
		{"random export.txt", "random export"},
		{".txt", "Untitled Chat"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if got := DeriveTitle(tc.path); got != tc.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WhatsApp Chat with Alice.txt"), "1/2/2023, 10:00 - Alice: hi")
	writeFile(t, filepath.Join(root, "IMG-0001.jpg"), "jpeg bytes")
	writeFile(t, filepath.Join(root, "other", "_chat.txt"), "1/2/2023, 11:00 - Bob: yo")
	writeFile(t, filepath.Join(root, "other", "clip.mp4"), "mp4 bytes")

	sources, err := DiscoverDir(root)
	if err != nil {
		t.Fatalf("DiscoverDir: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}

	byTitle := make(map[string]Source)
	for _, s := range sources {
		byTitle[s.Title] = s
	}

	alice, ok := byTitle["Alice"]
	if !ok {
		t.Fatal("missing the root-level source")
	}
	// Root-level sources only see root-level media.
	if len(alice.Media) != 1 || alice.Media[0].Path != "IMG-0001.jpg" {
		t.Errorf("alice media = %+v", alice.Media)
	}

	other, ok := byTitle["other"]
	if !ok {
		t.Fatal("missing the subdirectory source")
	}
	if len(other.Media) != 1 || other.Media[0].Path != "other/clip.mp4" {
		t.Errorf("other media = %+v", other.Media)
	}

	data, err := other.Media[0].Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "mp4 bytes" {
		t.Errorf("loaded %q", data)
	}
}

func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "WhatsApp Chat with Bob.txt")
	writeFile(t, textPath, "1/2/2023, 10:00 - Bob: hello")
	writeFile(t, filepath.Join(dir, "voice.opus"), "opus bytes")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not media")

	source, err := DiscoverFile(textPath)
	if err != nil {
		t.Fatalf("DiscoverFile: %v", err)
	}
	if source.Title != "Bob" {
		t.Errorf("Title = %q", source.Title)
	}
	if source.Text != "1/2/2023, 10:00 - Bob: hello" {
		t.Errorf("Text = %q", source.Text)
	}
	if len(source.Media) != 1 || source.Media[0].Path != "voice.opus" {
		t.Errorf("Media = %+v", source.Media)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverZip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeZip(t, zipPath, map[string]string{
		"WhatsApp Chat with Carol.txt": "1/2/2023, 10:00 - Carol: hey",
		"IMG-0002.jpg":                 "zip jpeg",
		"__MACOSX/junk":                "resource fork",
	})

	sources, err := DiscoverZip(zipPath)
	if err != nil {
		t.Fatalf("DiscoverZip: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(sources))
	}

	s := sources[0]
	if s.Title != "Carol" {
		t.Errorf("Title = %q", s.Title)
	}
	if s.Text != "1/2/2023, 10:00 - Carol: hey" {
		t.Errorf("Text = %q", s.Text)
	}
	if len(s.Media) != 1 {
		t.Fatalf("Media = %+v, want the jpeg only", s.Media)
	}

	data, err := s.Media[0].Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "zip jpeg" {
		t.Errorf("loaded %q", data)
	}
}

func TestDiscoverZip_CancelledLoad(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeZip(t, zipPath, map[string]string{
		"_chat.txt": "1/2/2023, 10:00 - A: hi",
		"a.jpg":     "x",
	})

	sources, err := DiscoverZip(zipPath)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sources[0].Media[0].Load(ctx); err == nil {
		t.Error("expected a cancellation error")
	}
}
