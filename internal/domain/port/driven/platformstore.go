package driven

import (
	"context"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// PlatformStore defines the driven port for the platform registry.
type PlatformStore interface {
	// ListActive returns active platforms ordered by display name.
	ListActive(ctx context.Context) ([]model.Platform, error)
	// Get returns model.ErrNotFound if the platform does not exist.
	Get(ctx context.Context, id string) (*model.Platform, error)
}
