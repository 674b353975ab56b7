package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/deficiency-notes/internal/xlsxparser"
	"github.com/ginjaninja78/deficiency-notes/pkg/utils"
)

var templateForce bool

var templateCmd = &cobra.Command{
	Use:   "template <job.xlsx>",
	Short: "Write an empty job workbook",
	Long: `The template command writes a workbook with the Equipment, Deficiencies
and Job sheets and their header rows, ready to be filled in and passed to
generate, import or process.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if utils.FileExists(path) && !templateForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := xlsxparser.WriteTemplate(path); err != nil {
			return err
		}
		sheets := xlsxparser.DefaultSheetNames()
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (sheets %s, %s, %s)\n",
			path, sheets.Equipment, sheets.Deficiencies, sheets.Job)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.Flags().BoolVar(&templateForce, "force", false, "Overwrite an existing file")
}
