package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"legendastv/internal/cache"
	"legendastv/internal/catalog"
	"legendastv/internal/catalog/legendastv"
	"legendastv/internal/config"
	"legendastv/internal/history"
	"legendastv/internal/logging"
	"legendastv/internal/notifications"
	"legendastv/internal/subtitles"
	"legendastv/internal/subtitles/opensubtitles"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	closers []func() error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// onClose registers fn to run when the command finishes.
func (c *commandContext) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}

func newRegistry() *catalog.Registry {
	registry := catalog.NewRegistry()
	_ = registry.Register("legendastv", legendastv.Factory)
	_ = registry.Register("opensubtitles", opensubtitles.Factory)
	return registry
}

// openSession logs into the configured providers, in resolver order. When
// only is non-empty it replaces the configured provider list.
func (c *commandContext) openSession(ctx context.Context, only ...string) (*catalog.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	deps := catalog.Deps{Config: cfg, Logger: logger}
	if cfg.Cache.Enabled {
		responses, err := cache.OpenResponses(cfg.ResponseCachePath())
		if err != nil {
			logging.WarnWithContext(logger, "response cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "another legendastv process may hold the cache; check cache_dir permissions"),
				logging.String(logging.FieldImpact, "catalog responses are fetched live"),
			)
		} else {
			c.onClose(responses.Close)
			deps.Responses = responses
			if ttl := cfg.ResponseTTL(); ttl > 0 {
				if removed, err := responses.Purge(ttl); err != nil {
					logger.Debug("response cache purge failed", logging.Error(err))
				} else if removed > 0 {
					logger.Debug("expired catalog responses purged", logging.Int("count", removed))
				}
			}
		}
	}

	names := cfg.Resolver.Providers
	if len(only) > 0 {
		names = only
	}
	providers, err := newRegistry().Open(ctx, names, deps)
	if err != nil {
		return nil, err
	}

	lookup, err := opensubtitles.NewLookup(deps)
	if err != nil {
		logger.Warn("content hash lookup disabled", logging.Error(err))
		lookup = nil
	}

	session := catalog.NewSession(cfg.LegendasTV.Language, lookup, providers...)
	c.onClose(session.Close)
	logger.Debug("catalog session opened",
		logging.String("session_id", session.ID),
		logging.String("providers", strings.Join(names, ",")),
		logging.Bool("hash_lookup", lookup != nil),
	)
	return session, nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, err
	}
	c.onClose(store.Close)
	return store, nil
}

func (c *commandContext) newCleaner() (*subtitles.Cleaner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return subtitles.NewCleaner(cfg.Paths.BlacklistFile)
}

// newResolver wires the resolver collaborators. History failures degrade
// to a warning; the resolver still runs without a history store.
func (c *commandContext) newResolver() (*subtitles.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	cleaner, err := c.newCleaner()
	if err != nil {
		return nil, err
	}

	options := []subtitles.Option{
		subtitles.WithLogger(logging.NewComponentLogger(logger, "resolver")),
		subtitles.WithNotifier(notifications.NewService(cfg)),
		subtitles.WithCleaner(cleaner),
	}
	if store, err := c.openHistory(); err != nil {
		logging.WarnWithContext(logger, "history store unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
			logging.String(logging.FieldImpact, "resolutions are not recorded"),
		)
	} else {
		options = append(options, subtitles.WithHistory(store))
	}
	if cfg.Resolver.KeepArchives {
		archives, err := cache.NewArchives(cfg.ArchiveDir(), logger)
		if err != nil {
			return nil, err
		}
		options = append(options, subtitles.WithArchiveCache(archives))
	}
	return subtitles.NewResolver(subtitles.OptionsFromConfig(cfg), options...), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
