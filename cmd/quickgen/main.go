package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/quickgen/pkg/extractor"
	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/metrics"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/parser/queries"
	"github.com/gnana997/quickgen/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every command shares: resolved config, logger and
// output streams.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	logLevel   string
	logFormat  string

	cfg     ProjectConfig
	log     *slog.Logger
	metrics *metrics.Metrics
	out     *printer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "quickgen",
		Short: "Document React components and index JS/TS code for agents",
		Long: `quickgen inserts JSDoc blocks above React components, builds a
knowledge base of symbols, imports and calls, and serves both over MCP.

Settings come from flags, then .quickgen/config.yaml, then defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", configPath, "project config file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		a.newReactCmd(),
		a.newKnowledgeCmd(),
		a.newServeCmd(),
		a.newInitCmd(),
		a.newSetupCmd(),
		newVersionCmd(),
	)
	return root
}

// setup resolves the config file and builds the logger. Flags win over the
// file.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = newPrinter(a.stdout)
	a.log = util.NopLogger()
	if cmd.Name() == "init" || cmd.Name() == "version" {
		return nil
	}

	cfg, err := loadProjectConfig(a.configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	a.log = util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(level),
		Format: util.LogFormat(format),
		Output: a.stderr,
	})

	if cfg.Metrics.File != "" {
		a.metrics = metrics.New()
	}
	return nil
}

// flushMetrics writes the metrics textfile when one is configured. A
// failure is logged, never fatal.
func (a *app) flushMetrics() {
	if a.metrics == nil {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
		a.log.Warn("Failed to write metrics", "file", a.cfg.Metrics.File, "error", err)
	}
}

// newGenerator wires the knowledge pipeline. The returned cleanup closes
// the parsers.
func (a *app) newGenerator() (*knowledge.Generator, func()) {
	pm := parser.NewParserManager(a.log)
	qm := queries.NewQueryManager(pm, a.log)
	gen := knowledge.NewGenerator(extractor.NewExtractor(pm, qm, a.log), a.log).WithMetrics(a.metrics)
	return gen, func() {
		qm.Close()
		pm.Close()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quickgen %s\n", version)
		},
	}
}
