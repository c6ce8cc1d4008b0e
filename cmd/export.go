package cmd

import (
	"github.com/spf13/cobra"
)

var (
	exportIgnoreNull bool
	exportKeepID     bool
	exportPretty     bool
)

var exportCmd = &cobra.Command{
	Use:   "export <store> <id>",
	Short: "Print a record's persisted form",
	Long: `Export serializes a record exactly as it would be written back to
storage: references export either the foreign id or the full foreign
payload depending on how the store declares them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Store(args[0])
		if err != nil {
			return err
		}
		rec, err := store.Get(args[1])
		if err != nil {
			return err
		}
		exported, err := store.ExportedValues(rec, exportIgnoreNull, !exportKeepID)
		if err != nil {
			return err
		}
		return encode(cmd.OutOrStdout(), exported, exportPretty)
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportIgnoreNull, "ignore-null", false, "Skip null attributes")
	exportCmd.Flags().BoolVar(&exportKeepID, "keep-id", true, "Include the id attribute")
	exportCmd.Flags().BoolVar(&exportPretty, "pretty", true, "Pretty print output")
}
