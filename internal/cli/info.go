package cli

import (
	"github.com/spf13/cobra"

	"ResearchBoard/internal/state"
)

func newInfoCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show what the stored board contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			store, snap, err := loadBoard(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts := make(map[state.Kind]int)
			selected := 0
			for _, it := range snap.Items {
				counts[it.Kind]++
				if it.Selected {
					selected++
				}
			}

			cmd.Printf("Store:    %s (%s)\n", cfg.StorePath, cfg.Store)
			cmd.Printf("Items:    %d\n", len(snap.Items))
			for _, k := range []state.Kind{state.KindNote, state.KindText, state.KindLine, state.KindImage} {
				cmd.Printf("  %-6s %d\n", k, counts[k])
			}
			cmd.Printf("Selected: %d\n", selected)
			cmd.Printf("View:     pan (%.1f, %.1f) zoom %.2f\n", snap.View.Pan.X, snap.View.Pan.Y, snap.View.Zoom)
			return nil
		},
	}
}
