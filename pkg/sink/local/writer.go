package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/rs/zerolog"
)

// Writer stores artifacts in a directory on disk.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

func (w *Writer) Deliver(ctx context.Context, artifact *export.Artifact) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target := filepath.Join(w.dir, filepath.Base(artifact.Filename))
	if err := os.WriteFile(target, artifact.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	zerolog.Ctx(ctx).Info().Str("path", target).Msg("artifact written")
	return target, nil
}
