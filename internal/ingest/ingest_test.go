package ingest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lanternworks/chatmerge/internal/parser"
)

func testIngestor() *Ingestor {
	return New(parser.Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestImportPath_Directory(t *testing.T) {
	root := t.TempDir()
	chat := strings.Join([]string{
		"1/2/2023, 10:00 - Alice: hi",
		"1/2/2023, 10:01 - Bob: photo.jpg (file attached)",
	}, "\n")
	writeFile(t, filepath.Join(root, "WhatsApp Chat with Alice.txt"), chat)
	writeFile(t, filepath.Join(root, "photo.jpg"), "jpeg")
	writeFile(t, filepath.Join(root, "empty.txt"), "nothing parseable")

	result, err := testIngestor().ImportPath(context.Background(), root)
	if err != nil {
		t.Fatalf("ImportPath: %v", err)
	}

	if result.BatchID == uuid.Nil {
		t.Error("batch id not assigned")
	}
	if result.Sources != 2 {
		t.Errorf("Sources = %d, want 2", result.Sources)
	}
	if result.Parsed != 1 {
		t.Errorf("Parsed = %d, want 1 (the empty source is skipped)", result.Parsed)
	}
	if result.Messages != 2 {
		t.Errorf("Messages = %d, want 2", result.Messages)
	}
	if len(result.Conversations) != 1 {
		t.Fatalf("got %d conversations", len(result.Conversations))
	}

	attachment := result.Conversations[0].Messages[1].Attachment
	if attachment == nil || attachment.Missing {
		t.Errorf("co-located media not resolved: %+v", attachment)
	}
}

func TestImportPath_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "WhatsApp Chat with Bob.txt")
	writeFile(t, path, "1/2/2023, 10:00 - Bob: hello")

	result, err := testIngestor().ImportPath(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportPath: %v", err)
	}
	if result.Parsed != 1 || result.Messages != 1 {
		t.Errorf("Parsed/Messages = %d/%d", result.Parsed, result.Messages)
	}
	if result.Conversations[0].Title != "Bob" {
		t.Errorf("Title = %q", result.Conversations[0].Title)
	}
}

func TestImportPath_Zip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	writeZip(t, zipPath, map[string]string{
		"WhatsApp Chat with Carol.txt": "1/2/2023, 10:00 - Carol: hey",
	})

	result, err := testIngestor().ImportPath(context.Background(), zipPath)
	if err != nil {
		t.Fatalf("ImportPath: %v", err)
	}
	if result.Parsed != 1 {
		t.Errorf("Parsed = %d", result.Parsed)
	}
}

func TestImportPath_SequencesSpanBatches(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(dir1, "a.txt"), "1/2/2023, 10:00 - A: one")
	writeFile(t, filepath.Join(dir2, "b.txt"), "1/2/2023, 10:01 - B: two")

	ing := testIngestor()
	first, err := ing.ImportPath(context.Background(), dir1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ing.ImportPath(context.Background(), dir2)
	if err != nil {
		t.Fatal(err)
	}

	if first.Conversations[0].Messages[0].Sequence != 0 {
		t.Errorf("first sequence = %d", first.Conversations[0].Messages[0].Sequence)
	}
	if second.Conversations[0].Messages[0].Sequence != 1 {
		t.Errorf("second batch should continue the session counter, got %d", second.Conversations[0].Messages[0].Sequence)
	}
}

func TestImportPath_Errors(t *testing.T) {
	if _, err := testIngestor().ImportPath(context.Background(), "/does/not/exist"); err == nil {
		t.Error("expected an error for a missing path")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "data.csv")
	writeFile(t, bad, "a,b,c")
	if _, err := testIngestor().ImportPath(context.Background(), bad); err == nil {
		t.Error("expected an error for an unsupported file type")
	}
}

func TestImportPath_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "1/2/2023, 10:00 - A: hi")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testIngestor().ImportPath(ctx, root); err == nil {
		t.Error("expected a cancellation error")
	}
}
