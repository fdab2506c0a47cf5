// Package store supplies terminus events to the analysis pipeline and keeps the
// parsed datasets cached between runs.
package store

import (
	"context"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// Source loads both terminus collections
type Source interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// FileSource is implemented by sources backed by local files that can be watched
type FileSource interface {
	Source
	Paths() []string
}
