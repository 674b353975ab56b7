package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/deficiency-notes/internal/preview"
	"github.com/ginjaninja78/deficiency-notes/internal/storage/sqlite"
)

var previewJobID int

var previewCmd = &cobra.Command{
	Use:   "preview [notes.html]",
	Short: "Print a notes document as plain text",
	Long: `The preview command prints a generated notes document as plain text, one
table row per line with cells separated by " | ".

Pass a document path, or --job to preview the notes saved in the job store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) == 1:
			return previewFile(cmd, args[0])
		case previewJobID > 0:
			return previewStored(cmd, previewJobID)
		default:
			return fmt.Errorf("a document path or --job is required")
		}
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVar(&previewJobID, "job", 0, "Preview the saved notes of this job")
}

func previewFile(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := preview.Text(f)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func previewStored(cmd *cobra.Command, jobID int) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	store, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	body, updated, err := store.Notes(ctx, jobID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return fmt.Errorf("no notes saved for job %d", jobID)
		}
		return err
	}

	text, err := preview.Text(strings.NewReader(body))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d, saved %s\n\n", jobID, updated.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, text)
	return nil
}
