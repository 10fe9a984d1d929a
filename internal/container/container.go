// Package container provides dependency injection for the finman application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/cascade"
	"github.com/msahsan119/finman/internal/config"
	"github.com/msahsan119/finman/internal/export"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/report"
	"github.com/msahsan119/finman/internal/session"
	"github.com/msahsan119/finman/internal/snapshot"
	"github.com/msahsan119/finman/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	store    store.SnapshotStore
	seed     *store.SeedFile
	service  *session.Service
	exporter *export.Exporter
	reports  *report.Generator
}

// NewContainer creates and wires all application dependencies, loading the
// stored ledger through the configured backend.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with a caller-supplied logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger = logging.OrDefault(logger)

	strategy, err := cascade.ParseStrategy(cfg.Cascade.Strategy)
	if err != nil {
		return nil, err
	}
	policy, err := aggregation.ParseAveragePolicy(cfg.Aggregation.AveragePolicy)
	if err != nil {
		return nil, err
	}

	seed := store.NewSeedFile(cfg.Ledger.TaxonomySeed, logger)
	snapStore, err := store.New(store.Options{
		Backend:    cfg.Data.Backend,
		File:       cfg.Data.File,
		SQLitePath: cfg.Data.SQLitePath,
		Fallback:   fallback(cfg, seed, logger),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}

	snap, err := snapStore.Load(ctx)
	if err != nil {
		snapStore.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	sess, incomplete, err := session.New(snap, session.Options{
		Strategy:          strategy,
		AveragePolicy:     policy,
		SavingsCategories: cfg.Ledger.SavingsCategories,
		Logger:            logger,
	})
	if err != nil {
		snapStore.Close()
		return nil, fmt.Errorf("failed to build ledger session: %w", err)
	}

	service := session.NewService(sess, snapStore, cfg.Data.SaveRetries, logger)
	exporter := export.New(export.Options{
		Delimiter:       cfg.DelimiterRune(),
		HomeCurrency:    cfg.Ledger.HomeCurrency,
		ForeignCurrency: cfg.Ledger.ForeignCurrency,
		Logger:          logger,
	})
	if cfg.Data.BackupEnabled {
		service.OnSaved(exporter.BackupHook(cfg.Data.BackupFile))
	}

	reports := report.NewGenerator(report.Options{
		HomePlaces:    int32(cfg.Aggregation.HomePlaces),
		ForeignPlaces: int32(cfg.Aggregation.ForeignPlaces),
		Logger:        logger,
	})

	logger.Debug("Container initialized successfully",
		logging.F(logging.FieldBackend, snapStore.Backend()),
		logging.F(logging.FieldStrategy, string(strategy)),
		logging.F(logging.FieldCount, snap.Records()),
		logging.F("incomplete", incomplete))

	return &Container{
		logger:   logger,
		config:   cfg,
		store:    snapStore,
		seed:     seed,
		service:  service,
		exporter: exporter,
		reports:  reports,
	}, nil
}

// fallback seeds a new ledger from the taxonomy seed file when it exists,
// otherwise from the configured default categories.
func fallback(cfg *config.Config, seed *store.SeedFile, logger logging.Logger) store.Fallback {
	return func() *snapshot.Snapshot {
		snap := snapshot.Default(cfg.Ledger.DefaultCategories, cfg.ConversionRate())
		specs, err := seed.Load()
		if err != nil {
			logger.WithError(err).Warn("Ignoring taxonomy seed file")
			return snap
		}
		if len(specs) > 0 {
			snap.Categories = specs
		}
		return snap
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetStore returns the snapshot backend.
func (c *Container) GetStore() store.SnapshotStore { return c.store }

// GetSeedFile returns the taxonomy seed file handle.
func (c *Container) GetSeedFile() *store.SeedFile { return c.seed }

// GetService returns the persisting ledger service.
func (c *Container) GetService() *session.Service { return c.service }

// GetSession returns the live ledger session.
func (c *Container) GetSession() *session.Session { return c.service.Session() }

// GetExporter returns the CSV exporter.
func (c *Container) GetExporter() *export.Exporter { return c.exporter }

// GetReports returns the report generator.
func (c *Container) GetReports() *report.Generator { return c.reports }

// Close releases the snapshot backend.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
