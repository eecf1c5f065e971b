package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/lanternworks/chatmerge/internal/chat"
	"github.com/lanternworks/chatmerge/internal/media"
	"github.com/lanternworks/chatmerge/internal/parser"
)

// Ingestor runs discovered sources through the parser. One Ingestor owns
// one parse session, so sequences stay unique across every batch of a
// run.
type Ingestor struct {
	session *parser.Session
	opts    parser.Options
	logger  *slog.Logger
}

// BatchResult summarizes one import batch.
type BatchResult struct {
	BatchID       uuid.UUID                  `json:"batch_id"`
	Path          string                     `json:"path"`
	Sources       int                        `json:"sources"`
	Parsed        int                        `json:"parsed"`
	Messages      int                        `json:"messages"`
	Conversations []*chat.ParsedConversation `json:"-"`
}

// New creates an ingestor with a fresh parse session.
func New(opts parser.Options, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		session: parser.NewSession(),
		opts:    opts,
		logger:  logger,
	}
}

// ImportPath ingests a directory tree, a ZIP archive, or a single .txt
// export. A malformed source never aborts the batch; it degrades to an
// empty result and is logged. Cancellation is honored between source
// units (a single source parse is fast and CPU-bound).
func (ing *Ingestor) ImportPath(ctx context.Context, path string) (*BatchResult, error) {
	sources, err := ing.discover(path)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		BatchID: uuid.New(),
		Path:    path,
		Sources: len(sources),
	}

	ing.logger.Info("import batch starting",
		"batch_id", result.BatchID,
		"path", path,
		"sources", len(sources),
	)

	for _, source := range sources {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		index := media.BuildIndex(source.Media)
		conversation := parser.ParseSource(source.Text, source.Title, index, ing.session, ing.opts)
		if conversation == nil {
			ing.logger.Warn("source yielded no messages", "source", source.Path)
			continue
		}

		ing.logger.Info("source parsed",
			"source", source.Path,
			"title", source.Title,
			"messages", len(conversation.Messages),
			"media_files", index.Len(),
		)

		result.Parsed++
		result.Messages += len(conversation.Messages)
		result.Conversations = append(result.Conversations, conversation)
	}

	ing.logger.Info("import batch complete",
		"batch_id", result.BatchID,
		"parsed", result.Parsed,
		"messages", result.Messages,
	)

	return result, nil
}

func (ing *Ingestor) discover(path string) ([]Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		return DiscoverDir(path)
	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		return DiscoverZip(path)
	case isTextEntry(path):
		source, err := DiscoverFile(path)
		if err != nil {
			return nil, err
		}
		return []Source{source}, nil
	default:
		return nil, fmt.Errorf("unsupported import path %s: want a directory, .zip or .txt", path)
	}
}
