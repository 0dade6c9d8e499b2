package disk

import (
	"context"
	"fmt"

	"github.com/dcnetdisk/dcdisk/internal/logger"
	"github.com/dcnetdisk/dcdisk/pkg/content"
	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// ProvisionRoot creates the storage root of username in store. It is
// idempotent and touches only the byte store, so it can run while a server
// holds the metadata repository open.
func ProvisionRoot(ctx context.Context, store content.Store, resolver *Resolver, username string) error {
	dir, err := resolver.Resolve(username, metadata.RootPath)
	if err != nil {
		return err
	}
	if err := store.MkdirAll(ctx, dir.Key); err != nil {
		return fmt.Errorf("create root for %s: %w", username, err)
	}
	logger.Info("Provisioned storage root for %s at %s", username, dir.Abs)
	return nil
}
