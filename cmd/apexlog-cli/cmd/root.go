package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/apexlog-tools/apexlog/config"
)

// rootOptions holds global flags shared across subcommands.
type rootOptions struct {
	format      string
	configPath  string
	metricsAddr string

	log *zap.Logger
	cfg *config.Config
}

// NewRootCommand creates the root command for apexlog-cli.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "apexlog-cli",
		Short: "Parse and analyze Salesforce Apex debug logs",
		Long: "apexlog-cli is a command-line front end over the apexlog library.\n\n" +
			"It parses Apex debug logs into a scope tree, runs the SOQL linter\n" +
			"over queries found in that tree, and can split a fully-qualified\n" +
			"Apex symbol into its namespace/class/method components.\n\n" +
			"Examples:\n" +
			"  apexlog-cli parse debug.log\n" +
			"  cat debug.log | apexlog-cli parse -\n" +
			"  apexlog-cli lint debug.log\n" +
			"  apexlog-cli symbol ns.Outer.Inner.method --project-ns=ns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.format, "format", "json", "Output format: json|text")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a linter rule-toggle YAML file")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090) for the duration of the command")

	cmd.AddCommand(newParseCommand(opts))
	cmd.AddCommand(newLintCommand(opts))
	cmd.AddCommand(newSymbolCommand(opts))

	return cmd
}

func (o *rootOptions) init() error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	o.log = log

	if o.configPath != "" {
		cfg, err := config.LoadFromFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.cfg = cfg
	} else {
		o.cfg = config.Default()
	}

	if o.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(o.metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				o.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	return nil
}

// readInput returns the contents of path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
