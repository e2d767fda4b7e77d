package store

import (
	"context"

	"github.com/hamed0406/sitenotifier/internal/domain"
)

// SiteStore loads the whole site list at the start of a run and overwrites
// it in full at the end. Implementations must keep the order of the list.
type SiteStore interface {
	Load(ctx context.Context) ([]domain.Site, error)
	Save(ctx context.Context, sites []domain.Site) error
}
