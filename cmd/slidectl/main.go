// Command slidectl inspects and edits a stored presentation without running
// the server. It reads the same configuration as the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"slidedeck/internal/config"
	"slidedeck/internal/services"
)

type cli struct {
	verbose bool
	driver  string
	path    string
	key     string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "slidectl",
		Short:         "Inspect and edit stored presentations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if c.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&c.driver, "driver", "", "Storage driver: memory, file, sqlite or s3 (default from config)")
	root.PersistentFlags().StringVar(&c.path, "path", "", "Storage path for the file and sqlite drivers")
	root.PersistentFlags().StringVar(&c.key, "key", "", "Slot key of the presentation")

	root.AddCommand(
		c.showCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.addCmd(),
		c.deleteCmd(),
		c.moveCmd(),
		c.resetCmd(),
		c.keysCmd(),
	)
	return root
}

// storage resolves the configuration with flag overrides applied.
func (c *cli) storage() (config.StorageConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.StorageConfig{}, err
	}
	if c.driver != "" {
		cfg.Storage.Driver = c.driver
	}
	if c.path != "" {
		cfg.Storage.Path = c.path
	}
	if c.key != "" {
		cfg.Storage.Key = c.key
	}
	if err := cfg.Validate(); err != nil {
		return config.StorageConfig{}, err
	}
	return cfg.Storage, nil
}

// openStore opens the configured slot and loads the presentation from it.
func (c *cli) openStore() (*services.SlideStore, func() error, error) {
	scfg, err := c.storage()
	if err != nil {
		return nil, nil, err
	}
	slot, closeSlot, err := services.OpenSlot(scfg, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	store, err := services.NewSlideStore(slot,
		services.WithKey(scfg.Key),
		services.WithLogger(c.logger))
	if err != nil {
		_ = closeSlot()
		return nil, nil, err
	}
	return store, closeSlot, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
