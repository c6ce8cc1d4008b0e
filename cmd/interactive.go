package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/morandi/jstore/pkg/dao"
	"github.com/morandi/jstore/pkg/query"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive [store]",
	Short: "Browse stores in a REPL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		initial := ""
		if len(args) > 0 {
			initial = args[0]
		}
		return runInteractive(initial)
	},
}

func runInteractive(storeName string) error {
	fmt.Println("Interactive mode. Type 'help' for commands, 'exit' to leave.")

	var store dao.Store
	if storeName != "" {
		s, err := registry.Store(storeName)
		if err != nil {
			return err
		}
		store = s
		fmt.Printf("Using store: %s\n", storeName)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	resolve := false

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, rest := splitCommand(line)

		switch cmd {
		case "exit", "quit":
			return nil

		case "help":
			fmt.Println(`Commands:
  stores               list declared stores
  use <store>          switch the active store
  list [condition]     list records, e.g. list age >= 18
  get <id>             fetch one record by id
  count [condition]    page and total counts for a condition
  resolve on|off       toggle reference resolution for output
  exit                 leave`)

		case "stores":
			for _, name := range registry.Names() {
				fmt.Println(name)
			}

		case "use":
			s, err := registry.Store(rest)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			store = s
			fmt.Printf("Using store: %s\n", rest)

		case "resolve":
			resolve = rest == "on"
			fmt.Printf("Resolve references: %v\n", resolve)

		case "list", "count":
			if store == nil {
				fmt.Println("No store selected; use <store> first.")
				continue
			}
			q := query.New()
			if rest != "" {
				if _, err := q.Where(rest); err != nil {
					fmt.Println("Error:", err)
					continue
				}
			}
			it, err := store.Select(q)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if cmd == "count" {
				fmt.Printf("count=%d total=%d\n", it.Count(), it.CountTotal())
				continue
			}
			rows, err := it.ToPlainDataList(resolve)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			for _, row := range rows {
				if err := encode(rl.Stdout(), row, false); err != nil {
					fmt.Println("Error:", err)
					break
				}
			}

		case "get":
			if store == nil {
				fmt.Println("No store selected; use <store> first.")
				continue
			}
			rec, err := store.Get(rest)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			data, err := rec.GetArray(resolve)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if err := encode(rl.Stdout(), data, true); err != nil {
				fmt.Println("Error:", err)
			}

		default:
			fmt.Printf("Unknown command %q; type 'help'.\n", cmd)
		}
	}
	return nil
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(parts[0])
	rest := ""
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest
}
