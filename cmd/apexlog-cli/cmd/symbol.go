package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexlog-tools/apexlog/symbol"
)

type symbolOptions struct {
	root      *rootOptions
	projectNS string
}

func newSymbolCommand(opts *rootOptions) *cobra.Command {
	symOpts := &symbolOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "symbol <symbol>",
		Short: "Split a fully-qualified Apex symbol into its components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbol(symOpts, args[0])
		},
	}
	cmd.Flags().StringVar(&symOpts.projectNS, "project-ns", "", "Comma-separated list of namespaces known to the current project")
	return cmd
}

func runSymbol(opts *symbolOptions, raw string) error {
	var namespaces []string
	if opts.projectNS != "" {
		namespaces = strings.Split(opts.projectNS, ",")
	}

	sym, err := symbol.Parse(raw, namespaces)
	if err != nil {
		return fmt.Errorf("parse symbol: %w", err)
	}

	switch opts.root.format {
	case "text":
		fmt.Printf("Namespace:  %s\n", sym.Namespace)
		fmt.Printf("OuterClass: %s\n", sym.OuterClass)
		fmt.Printf("InnerClass: %s\n", sym.InnerClass)
		fmt.Printf("Method:     %s\n", sym.Method)
		fmt.Printf("Parameters: %s\n", sym.Parameters)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sym); err != nil {
			return fmt.Errorf("encode symbol: %w", err)
		}
	}
	return nil
}
