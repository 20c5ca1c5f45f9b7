package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ResearchBoard/internal/engine"
	boardnet "ResearchBoard/internal/net"
	"ResearchBoard/internal/storage"
	"ResearchBoard/internal/ui"
)

func newJoinCommand(opts *options) *cobra.Command {
	var browseFor time.Duration

	cmd := &cobra.Command{
		Use:   "join [link]",
		Short: "Follow a board presented on the local network",
		Long: `Follow a presented board. The link is what the presenter shows, e.g.
researchboard://192.168.1.20:8765. Without a link the local network is searched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			link := ""
			if len(args) == 1 {
				link = args[0]
			} else {
				cmd.Printf("Searching for boards (%s)...\n", browseFor)
				peers, err := boardnet.Browse(browseFor)
				if err != nil {
					return err
				}
				if len(peers) == 0 {
					return errors.New("no presented boards found; pass the share link instead")
				}
				for _, p := range peers {
					cmd.Printf("  found %s at %s\n", p.Name, p.Addr)
				}
				link = peers[0].Addr
			}

			follower, err := boardnet.Dial(ctx, link)
			if err != nil {
				return err
			}
			defer follower.Close()

			session := engine.NewSession(storage.Empty(), nil, opts.cfg.EngineOptions())
			app := ui.NewApp(ui.AppConfig{
				Title:    "ResearchBoard (following)",
				Session:  session,
				Follower: true,
				Status:   "Following " + link,
			})

			go func() {
				if err := follower.Run(ctx, app.Apply); err != nil {
					app.SetStatus(fmt.Sprintf("Disconnected: %v", err))
					return
				}
				app.SetStatus("Presenter ended the session")
			}()

			app.Run()
			return nil
		},
	}

	cmd.Flags().DurationVar(&browseFor, "browse-timeout", 3*time.Second, "How long to search the network")

	return cmd
}
