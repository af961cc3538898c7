// Package catalog lists the tracks a user wants in their library.
package catalog

import (
	"context"

	"github.com/cesargomez89/slskdsync/internal/domain"
)

// Catalog returns wanted tracks, most recently saved first. A limit of
// zero or less returns everything.
type Catalog interface {
	WantedTracks(ctx context.Context, limit int) ([]domain.Track, error)
}
