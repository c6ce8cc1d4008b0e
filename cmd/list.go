package cmd

import (
	"github.com/spf13/cobra"

	"github.com/morandi/jstore/pkg/query"
)

var (
	listWhere   string
	listLimit   int
	listOffset  int
	listResolve bool
	listPretty  bool
	listTotal   bool
)

var listCmd = &cobra.Command{
	Use:   "list <store>",
	Short: "List the records of a store",
	Long: `List records as JSON, one object per line (or an indented array
with --pretty). --where takes a condition such as:

  jstore list users --where "age >= 18 AND status = 'active'"
  jstore list orders --where "total > 100 OR priority = TRUE" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := registry.Store(args[0])
		if err != nil {
			return err
		}

		q := query.New().Limit(listLimit).Offset(listOffset)
		if listWhere != "" {
			if _, err := q.Where(listWhere); err != nil {
				return err
			}
		}

		it, err := store.Select(q)
		if err != nil {
			return err
		}
		if listTotal {
			return encode(cmd.OutOrStdout(), map[string]interface{}{
				"count": it.Count(),
				"total": it.CountTotal(),
			}, listPretty)
		}

		rows, err := it.ToPlainDataList(listResolve)
		if err != nil {
			return err
		}
		if listPretty {
			return encode(cmd.OutOrStdout(), rows, true)
		}
		for _, row := range rows {
			if err := encode(cmd.OutOrStdout(), row, false); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listWhere, "where", "w", "", "Condition expression")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of records (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of matching records to skip")
	listCmd.Flags().BoolVarP(&listResolve, "resolve", "r", false, "Resolve references before output")
	listCmd.Flags().BoolVar(&listPretty, "pretty", false, "Pretty print output")
	listCmd.Flags().BoolVar(&listTotal, "total", false, "Print page and total counts instead of records")
}
