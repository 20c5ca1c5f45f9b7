package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/generate"
	"ResearchBoard/internal/logger"
	boardnet "ResearchBoard/internal/net"
	"ResearchBoard/internal/storage"
	"ResearchBoard/internal/ui"
)

// shutdownTimeout bounds the final save and share teardown.
const shutdownTimeout = 15 * time.Second

func newRunCommand(opts *options) *cobra.Command {
	var (
		share bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the board",
		Long: `Open the board window. Every committed change is saved in the background.

With --share the board is presented on the local network: followers started with
"researchboard join" see every change as it is committed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, snap := openBoard(ctx, cfg)
			var (
				saver     *storage.Saver
				persister engine.Persister
			)
			if store != nil {
				defer store.Close()
				saver = storage.NewSaver(store)
				persister = saver
			}
			session := engine.NewSession(snap, persister, cfg.EngineOptions())

			appCfg := ui.AppConfig{Title: "ResearchBoard", Session: session}
			if store == nil {
				appCfg.Status = "Board store unavailable: changes are not saved"
			}
			if cfg.Generator.Endpoint != "" {
				appCfg.Generator = generate.NewHTTPGenerator(cfg.Generator.Endpoint)
			}

			var host *boardnet.Host
			if share {
				if cmd.Flags().Changed("port") {
					cfg.Share.Port = port
				}
				var err error
				host, err = boardnet.StartHost(boardnet.HostConfig{Port: cfg.Share.Port, Name: cfg.Share.Name, Advertise: true})
				if err != nil {
					return err
				}
				appCfg.ShareLink = host.Link()
				session.OnCommit(func(s storage.Snapshot) {
					if err := host.Publish(s); err != nil {
						logger.Error("[SHARE] publish failed", err)
					}
				})
				if err := host.Publish(session.Snapshot()); err != nil {
					logger.Error("[SHARE] publish failed", err)
				}
				cmd.Printf("Presenting board at %s\n", appCfg.ShareLink)
			}

			ui.NewApp(appCfg).Run()

			shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if host != nil {
				if err := host.Close(shutdown); err != nil {
					logger.Error("[SHARE] shutdown failed", err)
				}
			}
			if err := session.Close(shutdown); err != nil {
				return err
			}
			if saver != nil {
				logger.Info("[STORE] board saved", map[string]interface{}{"saves": saver.Saved(), "failed": saver.Failed()})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&share, "share", false, "Present the board on the local network")
	cmd.Flags().IntVar(&port, "port", 0, "Share port (default from configuration)")

	return cmd
}
