package cmd

import (
	"github.com/spf13/cobra"
)

var (
	getResolve bool
	getPretty  bool
)

var getCmd = &cobra.Command{
	Use:   "get <store> <id>",
	Short: "Fetch a single record by id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Store(args[0])
		if err != nil {
			return err
		}
		rec, err := store.Get(args[1])
		if err != nil {
			return err
		}
		data, err := rec.GetArray(getResolve)
		if err != nil {
			return err
		}
		return encode(cmd.OutOrStdout(), data, getPretty)
	},
}

func init() {
	getCmd.Flags().BoolVarP(&getResolve, "resolve", "r", false, "Resolve references before output")
	getCmd.Flags().BoolVar(&getPretty, "pretty", true, "Pretty print output")
}
