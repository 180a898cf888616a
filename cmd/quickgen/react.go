package main

import (
	"github.com/spf13/cobra"

	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/scanner"
)

type reactOptions struct {
	dir         string
	dryRun      bool
	noTimestamp bool
	skipEmpty   bool
	json        bool
}

func (a *app) newReactCmd() *cobra.Command {
	var opts reactOptions
	cmd := &cobra.Command{
		Use:     "react",
		Aliases: []string{"docs"},
		Short:   "Insert JSDoc blocks above React components",
		Long: `Scan a directory for React components and insert a JSDoc block above
each one that does not have an @component block yet. Props are inferred from
the first parameter.

Files that fail to parse are reported and skipped; only an unreadable
directory or invalid patterns make the command fail.

Examples:
  quickgen react
  quickgen react --dir app --dry-run
  quickgen docs --no-timestamp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReact(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "", "directory to scan (default from config, else src)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print a diff instead of writing files")
	f.BoolVar(&opts.noTimestamp, "no-timestamp", false, "omit the @generated line")
	f.BoolVar(&opts.skipEmpty, "skip-empty", false, "skip components without inferred props")
	f.BoolVar(&opts.json, "json", false, "print the run result as JSON")
	return cmd
}

func (a *app) runReact(cmd *cobra.Command, opts reactOptions) error {
	docs := a.cfg.Docs
	cfg := scanner.Config{
		Dir:       docs.Dir,
		Discovery: docs.discovery(),
		Collect:   docs.collect(),
		DryRun:    opts.dryRun,
	}
	if opts.dir != "" {
		cfg.Dir = opts.dir
	}
	if opts.noTimestamp {
		cfg.Collect.Timestamp = false
	}
	if opts.skipEmpty {
		cfg.Collect.SkipEmptyProps = true
	}

	pm := parser.NewParserManager(a.log)
	defer pm.Close()

	res, err := scanner.NewScanner(pm, a.log).WithMetrics(a.metrics).Run(cmd.Context(), cfg)
	defer a.flushMetrics()
	if err != nil {
		return err
	}

	if opts.json {
		return a.out.json(res)
	}
	a.out.docsSummary(res, opts.dryRun)
	return nil
}
