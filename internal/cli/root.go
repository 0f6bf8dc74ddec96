// Package cli holds the localboard command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"localboard/internal/config"
	"localboard/internal/localstore"
	"localboard/internal/logging"
	boardnet "localboard/internal/net"
	"localboard/internal/state"
)

// AppFunc runs the desktop app on a ready store. watchPath is the file to
// watch for external writes, or "".
type AppFunc func(ctx context.Context, cfg *config.Config, store *state.Store, logger *zap.Logger, watchPath string) error

type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	runApp AppFunc
}

// NewRootCmd builds the command tree. Without a subcommand it runs app.
func NewRootCmd(app AppFunc) *cobra.Command {
	c := &cli{runApp: app}

	root := &cobra.Command{
		Use:   "localboard",
		Short: "LocalBoard - a local whiteboard with undo, export and share links",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, c.verbose)
			if err != nil {
				return err
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE:          c.runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.exportCmd(),
		c.importCmd(),
		c.addImageCmd(),
		c.shareCmd(),
		c.discoverCmd(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute(app AppFunc) {
	if err := NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) runRoot(cmd *cobra.Command, args []string) error {
	if c.runApp == nil {
		return cmd.Help()
	}
	store, st, err := c.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	watchPath := ""
	if fs, ok := st.(*localstore.FileStorage); ok && c.cfg.Watch {
		watchPath = fs.Path(c.cfg.Storage.Slot)
	}
	return c.runApp(cmd.Context(), c.cfg, store, c.logger, watchPath)
}

// openStore opens the configured backend and builds a store on it. The caller
// closes the returned storage.
func (c *cli) openStore(ctx context.Context) (*state.Store, localstore.Storage, error) {
	st, err := localstore.Open(ctx, localstore.Backend(c.cfg.Storage.Backend), c.cfg.Storage.Path, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	loc, err := boardnet.ShareLocation(c.cfg.Share.Scheme, c.cfg.Share.Host, c.cfg.Share.Port)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	img := c.cfg.Image
	store := state.NewStore(
		state.WithLogger(c.logger),
		state.WithStorage(st, c.cfg.Storage.Slot),
		state.WithLocation(loc),
		state.WithHistoryLimit(c.cfg.History.Limit),
		state.WithImageDefaults(state.ImageDefaults{
			X: img.X, Y: img.Y,
			MaxWidth: img.MaxWidth, MaxHeight: img.MaxHeight,
			FallbackWidth: img.FallbackWidth, FallbackHeight: img.FallbackHeight,
		}),
	)
	return store, st, nil
}

// loadedStore opens the store and loads whatever the slot holds.
func (c *cli) loadedStore(ctx context.Context) (*state.Store, localstore.Storage, error) {
	store, st, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := store.LoadFromLocal(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return store, st, nil
}
