package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cdjexport/internal/config"
	"cdjexport/internal/library"
	"cdjexport/internal/logging"
	"cdjexport/internal/romaji"
	"cdjexport/internal/services"

	_ "cdjexport/internal/library/rekordboxdb"
	_ "cdjexport/internal/library/rekordboxxml"
)

// newTransliterator builds the romanizer used by export-facing commands.
var newTransliterator = func() (romaji.Transliterator, error) {
	return romaji.NewDefault()
}

type commandContext struct {
	configFlag   *string
	databaseFlag *string
	debugFlag    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	runID      string
	loggerErr  error
}

func newCommandContext(configFlag, databaseFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		databaseFlag: databaseFlag,
		debugFlag:    debugFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if c.databaseFlag != nil && strings.TrimSpace(*c.databaseFlag) != "" {
			db, err := config.ExpandPath(strings.TrimSpace(*c.databaseFlag))
			if err != nil {
				c.configErr = services.Wrap(services.ErrConfiguration, "config", "resolve --database", "", err)
				return
			}
			cfg.Library.DatabasePath = db
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) debug() bool {
	return c.debugFlag != nil && *c.debugFlag
}

// ensureLogger builds the run logger once per invocation and prunes old
// per-run log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.runID = uuid.NewString()
		logger, err := logging.NewFromConfig(cfg, c.runID, c.debug())
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, "")
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openSource opens the configured rekordbox library reader.
func (c *commandContext) openSource() (library.Source, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	source, err := library.Open(cfg.Library, logger)
	if err != nil {
		return nil, nil, err
	}
	return source, logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
