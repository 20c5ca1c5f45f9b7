package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ResearchBoard/internal/export"
	"ResearchBoard/internal/storage"
)

func newExportCommand(opts *options) *cobra.Command {
	var (
		outputPath  string
		orientation string
		title       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as PDF or JSON",
		Long: `Export the stored board. The format follows the output extension:
.json writes a snapshot that "researchboard import" reads back, anything else a PDF.

Examples:
  researchboard export --out board.pdf
  researchboard export --out backup.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, snap, err := loadBoard(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if strings.EqualFold(filepath.Ext(outputPath), ".json") {
				if err := storage.NewFileStore(outputPath).Save(ctx, snap); err != nil {
					return fmt.Errorf("failed to export snapshot: %w", err)
				}
			} else {
				pdfOpts := export.Options{Title: title, Orientation: strings.ToUpper(orientation)}
				if err := export.WriteFile(outputPath, snap, pdfOpts); err != nil {
					return fmt.Errorf("failed to export board: %w", err)
				}
			}
			cmd.Printf("Exported %d item(s) to %s\n", len(snap.Items), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "board.pdf", "Output file")
	cmd.Flags().StringVar(&orientation, "orientation", "", "PDF page orientation: P or L (default: fit the board)")
	cmd.Flags().StringVar(&title, "title", "ResearchBoard", "PDF document title")

	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var appendItems bool

	cmd := &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Replace the board with a JSON snapshot, or append its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := storage.NewFileStore(args[0]).Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			store, snap, err := loadBoard(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if appendItems {
				n, err := appendToBoard(ctx, store, snap, opts.cfg.EngineOptions(), in.Items, false)
				if err != nil {
					return err
				}
				cmd.Printf("Appended %d of %d item(s)\n", n, len(in.Items))
				return nil
			}

			if err := store.Save(ctx, in); err != nil {
				return fmt.Errorf("failed to save board: %w", err)
			}
			cmd.Printf("Board replaced with %d item(s)\n", len(in.Items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&appendItems, "append", false, "Add the items on top of the current board instead of replacing it")

	return cmd
}
