package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ResearchBoard/internal/engine"
	"ResearchBoard/internal/generate"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

func newGenerateCommand(opts *options) *cobra.Command {
	var (
		payloadPath string
		instruction string
		endpoint    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Append generated items to the board",
		Long: `Ask the generator for new items about the current selection and append them
to the stored board. Items arrive as newline-delimited JSON; invalid lines are skipped.

Examples:
  researchboard generate --instruction "summarise the selected notes"
  researchboard generate --payload items.ndjson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var gen generate.Generator
			switch {
			case payloadPath != "":
				gen = generate.FileGenerator{Path: payloadPath}
			case endpoint != "":
				gen = generate.NewHTTPGenerator(endpoint)
			case opts.cfg.Generator.Endpoint != "":
				gen = generate.NewHTTPGenerator(opts.cfg.Generator.Endpoint)
			default:
				return errors.New("no generator: pass --payload or --endpoint, or set generator.endpoint")
			}

			store, snap, err := loadBoard(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			items, skipped, err := generate.Run(ctx, gen, instruction, selectedItems(snap))
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			n, err := appendToBoard(ctx, store, snap, opts.cfg.EngineOptions(), items, true)
			if err != nil {
				return err
			}
			cmd.Printf("Added %d item(s), skipped %d invalid payload(s)\n", n, skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadPath, "payload", "", "Read item payloads from an NDJSON file instead of calling the generator")
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "What to generate")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Generator URL (default from configuration)")

	return cmd
}

func selectedItems(snap storage.Snapshot) []state.Item {
	var out []state.Item
	for _, it := range snap.Items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// appendToBoard adds items through a session so they get fresh ids and z-order, then
// waits for the save. With place set the batch is moved into free space first.
func appendToBoard(ctx context.Context, store storage.Store, snap storage.Snapshot, opts engine.Options, items []state.Item, place bool) (int, error) {
	session := engine.NewSession(snap, storage.NewSaver(store), opts)
	var n int
	if place {
		n = session.AppendGenerated(items)
	} else {
		n = session.AppendItems(items)
	}
	if err := session.Close(ctx); err != nil {
		return n, err
	}
	return n, nil
}
