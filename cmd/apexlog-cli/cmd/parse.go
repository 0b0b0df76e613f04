package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexlog-tools/apexlog"
	"github.com/apexlog-tools/apexlog/core"
)

type parseOptions struct {
	root *rootOptions
}

func newParseCommand(opts *rootOptions) *cobra.Command {
	parseOpts := &parseOptions{root: opts}

	return &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse an Apex debug log into a scope tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(parseOpts, args[0])
		},
	}
}

func runParse(opts *parseOptions, path string) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}

	p := apexlog.New()
	log := p.Parse(string(data))

	opts.root.log.Info("parsed log",
		zap.String("runID", log.RunID),
		zap.Int("parsingErrors", len(log.ParsingErrors)),
		zap.Int("logIssues", len(log.LogIssues)),
	)

	switch opts.root.format {
	case "text":
		printLogText(log)
	default:
		if err := printLogJSON(log); err != nil {
			return err
		}
	}

	if hasErrorIssue(log) {
		exitError("log contains Error-severity issues")
		os.Exit(1)
	}
	return nil
}

func hasErrorIssue(log *core.ApexLog) bool {
	for _, issue := range log.LogIssues {
		if issue.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

func printLogJSON(log *core.ApexLog) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	return nil
}

func printLogText(log *core.ApexLog) {
	fmt.Printf("Run ID:     %s\n", log.RunID)
	fmt.Printf("Namespaces: %v\n", log.Namespaces)
	fmt.Printf("CPU Time:   %dns\n", log.CpuTime)
	fmt.Printf("Roots:      %d\n", len(log.Children))
	fmt.Printf("Duration:   %s\n", log.ParseDuration)
	if len(log.ParsingErrors) > 0 {
		fmt.Println("Parsing errors:")
		for _, e := range log.ParsingErrors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if len(log.LogIssues) > 0 {
		fmt.Println("Log issues:")
		for _, i := range log.LogIssues {
			fmt.Printf("  [%s] %s: %s\n", i.Severity, i.Summary, i.Description)
		}
	}
	var printNode func(n *core.TreeNode, depth int)
	printNode = func(n *core.TreeNode, depth int) {
		fmt.Printf("%*s%s (self=%dns total=%dns)\n", depth*2, "", n.Type, n.Duration.Self, n.Duration.Total)
		for _, c := range n.Children {
			printNode(c, depth+1)
		}
	}
	for _, r := range log.Children {
		printNode(r, 0)
	}
}
