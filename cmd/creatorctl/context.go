package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/core"
	"github.com/agenthands/creatorgraph/internal/logging"
)

type commandContext struct {
	configFlag  *string
	dataDirFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag, dataDirFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, dataDirFlag: dataDirFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, *slog.Logger, error) {
	c.configOnce.Do(func() {
		_ = godotenv.Load()

		var cfg *config.Config
		var err error
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			cfg, err = config.Load(path)
			if err == nil {
				cfg.ApplyEnv()
			}
		} else {
			cfg, err = config.FromEnvironment()
		}
		if err != nil {
			c.configErr = err
			return
		}

		logger, err := logging.NewFromConfig(cfg.Log)
		if err != nil {
			c.configErr = err
			return
		}
		persistLocally(cfg, strings.TrimSpace(*c.dataDirFlag), logger)
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.logger, c.configErr
}

// persistLocally moves in-memory backends to badger under dataDir. Each CLI
// invocation is a new process, so ingest, resolve and search only see each
// other's state through disk.
func persistLocally(cfg *config.Config, dataDir string, logger *slog.Logger) {
	if dataDir == "" {
		return
	}
	if cfg.Store.Backend == "memory" || cfg.Store.Backend == "" {
		cfg.Store.Backend = "badger"
		cfg.Store.Path = filepath.Join(dataDir, "profiles")
		logger.Debug("using local profile store", "path", cfg.Store.Path)
	}
	if cfg.Vector.Backend == "memory" || cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "badger"
		cfg.Vector.Path = filepath.Join(dataDir, "vectors")
		logger.Debug("using local vector index", "path", cfg.Vector.Path)
	}
}

// withEngine builds an engine from the configuration and closes it after fn.
func (c *commandContext) withEngine(ctx context.Context, fn func(*core.Engine) error) error {
	cfg, logger, err := c.ensureConfig()
	if err != nil {
		return err
	}
	engine, err := core.NewEngineFromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close(context.Background())
	return fn(engine)
}

// writeJSON encodes v as indented JSON to the command's stdout.
// defaultDataDir is where the CLI keeps local state unless overridden.
func defaultDataDir() string {
	if dir := os.Getenv("CREATORCTL_DATA_DIR"); dir != "" {
		return dir
	}
	return ".creatorgraph"
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
