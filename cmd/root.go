package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/morandi/jstore/pkg/config"
	"github.com/morandi/jstore/pkg/jsonstore"
	"github.com/morandi/jstore/pkg/logging"
)

var (
	configPath string
	logLevel   string

	logs     *logging.Registry
	registry *jsonstore.Registry
)

var rootCmd = &cobra.Command{
	Use:   "jstore",
	Short: "Record store over JSON and JSONL files",
	Long: `jstore serves records out of JSON/JSONL-backed stores declared in a
YAML catalog, resolving references between stores on demand.

Examples:
  jstore --config stores.yaml stores
  jstore list users --where "age >= 18" --limit 10
  jstore get users 42 --resolve
  jstore export orders 7 --ignore-null
  jstore interactive users`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		level := logLevel
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			level = cfg.LogLevel
		}
		sink := logging.NewStderr(level)
		logs = logging.NewRegistry()
		logs.Register("dao", sink)
		logs.Register("config", sink)

		registry, err = config.BuildRegistry(cfg, logs)
		return err
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "stores.yaml", "Store catalog file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(storesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(interactiveCmd)
}

// encode streams a value as JSON, optionally indented.
func encode(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
