// Package checker probes every configured storage destination and records
// reachability and free space on the configuration row.
package checker

import (
	"context"
	"time"

	"github.com/haierkeys/unified-backup-service/internal/domain"
	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackendFactory builds a backend from a persisted configuration.
type BackendFactory func(storageType storage.Type, configData map[string]any) (storage.Backend, error)

// Checker runs the periodic storage health pass.
type Checker struct {
	logger     *zap.Logger
	storages   domain.StorageRepository
	newBackend BackendFactory
	limit      int
	now        func() time.Time
}

func New(storages domain.StorageRepository, log *zap.Logger) *Checker {
	return &Checker{
		logger:     log,
		storages:   storages,
		newBackend: storage.New,
		limit:      4,
		now:        time.Now,
	}
}

// CheckAll probes all configurations concurrently. A single configuration's
// failure is recorded on its row and never fails the pass.
func (c *Checker) CheckAll(ctx context.Context) error {
	configs, err := c.storages.List(ctx)
	if err != nil {
		return errors.Wrap(err, "checker: list storage configs")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for _, cfg := range configs {
		cfg := cfg
		g.Go(func() error {
			result := c.probe(ctx, cfg)
			if err := c.storages.UpdateCheckResult(ctx, cfg.ID, result); err != nil {
				c.logger.Error("storage check result write failed",
					zap.Int64(logger.FieldStorageID, cfg.ID),
					zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// probe runs the connection test and space query for one configuration.
// A nil ConnectionError in the result means healthy.
func (c *Checker) probe(ctx context.Context, cfg *domain.StorageConfig) *domain.SpaceCheckResult {
	result := &domain.SpaceCheckResult{CheckedAt: c.now().UTC()}

	fail := func(msg string) *domain.SpaceCheckResult {
		result.ConnectionError = &msg
		c.logger.Warn("storage check failed",
			zap.Int64(logger.FieldStorageID, cfg.ID),
			zap.String("storage_type", cfg.StorageType),
			zap.String("reason", msg))
		return result
	}

	backend, err := c.newBackend(cfg.StorageType, cfg.ConfigData)
	if err != nil {
		return fail(err.Error())
	}

	ok, detail := backend.TestConnection(ctx)
	if !ok {
		return fail(detail)
	}

	space, err := backend.SpaceInfo(ctx)
	if err != nil {
		c.logger.Warn("storage space query failed",
			zap.Int64(logger.FieldStorageID, cfg.ID),
			zap.Error(err))
	} else if space != nil {
		result.UsedGB = space.UsedGB
		result.FreeGB = space.FreeGB
		result.TotalGB = space.TotalGB
		if result.UsedGB == 0 && space.FreeGB != nil && space.TotalGB != nil {
			result.UsedGB = *space.TotalGB - *space.FreeGB
		}
	}

	c.logger.Debug("storage check passed",
		zap.Int64(logger.FieldStorageID, cfg.ID),
		zap.String("storage_type", cfg.StorageType))
	return result
}
