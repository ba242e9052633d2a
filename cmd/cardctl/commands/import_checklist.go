package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardtrack/pkg/checklist"
)

func importChecklistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-checklist <file.csv>",
		Short: "Import checklist rows from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			gdb, err := openDBMigrated()
			if err != nil {
				return err
			}
			count, err := checklist.ImportCSV(gdb, f)
			if err != nil {
				return fmt.Errorf("after %d rows: %w", count, err)
			}
			fmt.Printf("imported %d checklist rows\n", count)
			return nil
		},
	}
}
