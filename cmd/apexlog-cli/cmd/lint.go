package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexlog-tools/apexlog"
	"github.com/apexlog-tools/apexlog/core"
	"github.com/apexlog-tools/apexlog/internal/registry"
	"github.com/apexlog-tools/apexlog/soql/linter"
	"github.com/apexlog-tools/apexlog/soql/parser"
)

type lintOptions struct {
	root       *rootOptions
	queryField string
}

func newLintCommand(opts *rootOptions) *cobra.Command {
	lintOpts := &lintOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "lint <file|->",
		Short: "Run the SOQL linter over every query found in a debug log",
		Long: "lint parses a debug log, walks the resulting tree for SOQL_EXECUTE_BEGIN\n" +
			"nodes, and reports the declarative rule findings for each query.\n\n" +
			"--query-field restricts findings to queries inside a CODE_UNIT_STARTED\n" +
			"scope whose code unit text contains the given substring (e.g. a class\n" +
			"or trigger name), so a caller can lint one code unit at a time.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(lintOpts, args[0])
		},
	}
	cmd.Flags().StringVar(&lintOpts.queryField, "query-field", "", "Only lint queries within a code unit whose text contains this substring")
	return cmd
}

type lintResult struct {
	Query    string           `json:"query"`
	Findings []linter.Finding `json:"findings"`
}

func runLint(opts *lintOptions, path string) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}

	log := apexlog.New().Parse(string(data))

	var results []lintResult
	var walk func(n *core.TreeNode, enclosing string)
	walk = func(n *core.TreeNode, enclosing string) {
		if n.Type == registry.CodeUnitStarted {
			enclosing = n.Text
		}
		if n.Type == registry.SoqlExecuteBegin {
			if opts.queryField == "" || strings.Contains(enclosing, opts.queryField) {
				q := parser.Parse(n.Text)
				findings := linter.LintEnabled(q, enclosing, opts.root.cfg)
				if len(findings) > 0 {
					results = append(results, lintResult{Query: n.Text, Findings: findings})
				}
			}
		}
		for _, c := range n.Children {
			walk(c, enclosing)
		}
	}
	for _, r := range log.Children {
		walk(r, "")
	}

	switch opts.root.format {
	case "text":
		for _, res := range results {
			fmt.Printf("query: %s\n", res.Query)
			for _, f := range res.Findings {
				fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Summary, f.Message)
			}
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode lint results: %w", err)
		}
	}

	if len(results) > 0 {
		os.Exit(1)
	}
	return nil
}
