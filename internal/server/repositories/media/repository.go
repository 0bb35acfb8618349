// Package media provides PostgreSQL-backed persistence for media
// records.
package media

import (
	"context"

	model "github.com/dsmolkin/mediakeeper/internal/media"
)

// Repository is the persistence contract for media records.
type Repository interface {
	// Create inserts a new record and fills in its timestamps.
	Create(ctx context.Context, m *model.Media) error

	// GetByID returns one record or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*model.Media, error)

	// UpdateStatus batch-transitions the given records and returns the
	// updated rows. Unknown ids are skipped, not errors.
	UpdateStatus(ctx context.Context, ids []string, status model.Status) ([]model.Media, error)
}
