package sink

import (
	"context"

	"github.com/de-tools/report-export/pkg/export"
)

// Sink delivers a finished artifact and reports where it ended up.
type Sink interface {
	Deliver(ctx context.Context, artifact *export.Artifact) (string, error)
}
