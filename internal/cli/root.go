// Package cli wires configuration, storage, the board engine and the UI into the
// researchboard command.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ResearchBoard/internal/config"
	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/storage"
)

const (
	// Version is the current version of ResearchBoard
	Version = "0.4.0"
)

// options are shared by every subcommand.
type options struct {
	configPath string
	debug      bool

	cfg *config.Config
}

// NewRootCommand creates the root cobra command. Without a subcommand it opens the board.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	run := newRunCommand(opts)

	cmd := &cobra.Command{
		Use:   "researchboard",
		Short: "ResearchBoard - an infinite canvas for research notes",
		Long: `ResearchBoard is a local-first infinite canvas: sticky notes, text, freehand ink,
images and a ruler, with pan/zoom, lasso selection and AI-assisted note generation.
Boards can be presented to followers on the local network.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			level := cfg.LogLevel
			if opts.debug {
				level = "debug"
			}
			if err := logger.Init(level); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
		RunE: run.RunE,
	}
	cmd.Flags().AddFlagSet(run.Flags())

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(run)
	cmd.AddCommand(newJoinCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newGenerateCommand(opts))
	cmd.AddCommand(newInfoCommand(opts))

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// openStore opens the configured backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreFile:
		return storage.NewFileStore(cfg.StorePath), nil
	default:
		s, err := storage.OpenSQLite(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open board store: %w", err)
		}
		return s, nil
	}
}

// loadBoard opens the store and reads the board; a store that cannot be read yields an empty board.
func loadBoard(ctx context.Context, cfg *config.Config) (storage.Store, storage.Snapshot, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, storage.Snapshot{}, err
	}
	return store, storage.LoadOrEmpty(ctx, store), nil
}

// openBoard is loadBoard for the window: a store that cannot be opened is logged and the
// board starts empty with a nil store, so editing works but nothing is saved.
func openBoard(ctx context.Context, cfg *config.Config) (storage.Store, storage.Snapshot) {
	store, snap, err := loadBoard(ctx, cfg)
	if err != nil {
		logger.Error("[STORE] board store unavailable, starting empty", err, map[string]interface{}{"path": cfg.StorePath})
		return nil, storage.Empty()
	}
	return store, snap
}
