// Package container provides dependency injection for the receipt-ledger
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/receipt-ledger/internal/categorizer"
	"fjacquet/receipt-ledger/internal/config"
	"fjacquet/receipt-ledger/internal/entry"
	"fjacquet/receipt-ledger/internal/journal"
	"fjacquet/receipt-ledger/internal/llm"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/metrics"
	"fjacquet/receipt-ledger/internal/models"
	"fjacquet/receipt-ledger/internal/segmenter"
	"fjacquet/receipt-ledger/internal/store"
)

// Journal store drivers.
const (
	StoreNone     = "none"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation; dependencies are only reachable
// through getter methods.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     *store.MappingStore
	completer llm.Completer
	mapper    *categorizer.Mapper
	segmenter *segmenter.Segmenter
	journal   journal.Repository
	service   *entry.Service

	closers []io.Closer
}

// NewContainer creates and wires all application dependencies with the
// logger described by cfg.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(ctx, cfg, config.NewLogger(cfg))
}

// NewContainerWithLogger creates and wires all application dependencies
// around an existing logger.
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	c := &Container{logger: logger, config: cfg}

	c.store = store.NewMappingStore(
		cfg.MappingPath(cfg.Mappings.PatternsFile),
		cfg.MappingPath(cfg.Mappings.VendorsFile),
		cfg.MappingPath(cfg.Mappings.UserOverridesFile),
		cfg.MappingPath(cfg.Mappings.BusinessDefaultsFile),
		logger,
	)

	// AI provider (if enabled)
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		completer, closer, err := llm.NewProvider(ctx, llm.Options{
			Provider:          cfg.AI.Provider,
			APIKey:            cfg.AI.APIKey,
			Model:             cfg.AI.Model,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Timeout:           time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
		c.completer = completer
		c.closers = append(c.closers, closer)
		logger.Info("AI assistance enabled", logging.F(logging.FieldProvider, cfg.AI.Provider))
	} else {
		logger.Info("AI assistance disabled")
	}

	var enhancer *categorizer.AIEnhancer
	if c.completer != nil && cfg.AI.EnhanceAccounts {
		enhancer = categorizer.NewAIEnhancer(c.completer, logger)
		enhancer.OnDegrade(func() { metrics.Degraded(metrics.ComponentMapper, "ai") })
	}

	fallback := cfg.AI.FallbackAccount
	if fallback == "" {
		fallback = models.FallbackAccount
	}
	c.mapper = categorizer.NewMapper(c.store, enhancer, categorizer.Config{
		ConfidenceThreshold: cfg.Categorization.ConfidenceThreshold,
		FallbackAccount:     models.AccountPath(fallback),
		AutoLearn:           cfg.Categorization.AutoLearn,
	}, logger)

	var strategies []segmenter.Strategy
	if c.completer != nil && cfg.AI.SegmentReceipts {
		strategies = append(strategies, segmenter.NewLLMStrategy(c.completer, logger))
	}
	c.segmenter = segmenter.New(logger, strategies...)
	c.segmenter.OnDegrade(func(strategy string) { metrics.Degraded(metrics.ComponentSegmenter, strategy) })

	repo, err := openJournal(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.journal = repo

	c.service = entry.NewService(entry.Config{
		DefaultCurrency:  cfg.Ledger.DefaultCurrency,
		DefaultPayee:     cfg.Ledger.DefaultPayee,
		PaymentAccount:   models.AccountPath(cfg.Ledger.PaymentAccount),
		IncludeTaxLine:   cfg.Ledger.IncludeTaxLine,
		BalanceThreshold: decimal.NewNullDecimal(decimal.NewFromFloat(cfg.Ledger.BalanceThreshold)),
	}, c.mapper, c.segmenter, repo, logger)

	logger.Info("Container initialized successfully",
		logging.F("store_driver", cfg.Store.Driver),
		logging.F("mapping_strategies", len(c.mapper.Strategies())),
		logging.F("segmenter", c.segmenter.String()))

	return c, nil
}

// openJournal opens the configured journal store. The "none" driver returns
// a nil repository.
func openJournal(ctx context.Context, cfg *config.Config, logger logging.Logger) (journal.Repository, error) {
	switch cfg.Store.Driver {
	case "", StoreNone:
		return nil, nil
	case StoreBolt:
		repo, err := journal.OpenBolt(cfg.Store.Path, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case StorePostgres:
		repo, err := journal.OpenPostgres(ctx, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the mapping table store.
func (c *Container) GetStore() *store.MappingStore {
	return c.store
}

// GetCompleter returns the AI completer. Returns nil if AI is not enabled.
func (c *Container) GetCompleter() llm.Completer {
	return c.completer
}

// GetMapper returns the account mapper.
func (c *Container) GetMapper() *categorizer.Mapper {
	return c.mapper
}

// GetSegmenter returns the receipt segmenter.
func (c *Container) GetSegmenter() *segmenter.Segmenter {
	return c.segmenter
}

// GetJournal returns the journal repository, or nil when entries are not
// stored.
func (c *Container) GetJournal() journal.Repository {
	return c.journal
}

// GetService returns the entry pipeline.
func (c *Container) GetService() *entry.Service {
	return c.service
}

// Close releases the journal and AI provider resources.
func (c *Container) Close() error {
	var errs []error
	if c.journal != nil {
		errs = append(errs, c.journal.Close())
	}
	for _, closer := range c.closers {
		if closer != nil {
			errs = append(errs, closer.Close())
		}
	}
	c.logger.Info("Container closed")
	return errors.Join(errs...)
}
