package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnana997/quickgen/pkg/knowledge"
)

func (a *app) newKnowledgeCmd() *cobra.Command {
	var dir, output string

	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Build and query the code knowledge base",
		Long: `Commands for the knowledge base: per-file symbols, imports, exports,
references and function calls, saved as JSON under .knowledge/.

Subcommands:
  generate  - Scan the project and write the knowledge base
  query     - Show what was recorded for one file
  trace     - Show where a symbol is defined, called and imported
  watch     - Regenerate whenever a source file changes`,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&dir, "dir", "", "project root (default from config, else .)")
	pf.StringVar(&output, "output", "", "knowledge directory, relative to the root (default .knowledge)")

	config := func() knowledge.Config {
		cfg := a.cfg.Knowledge.generator()
		if dir != "" {
			cfg.Dir = dir
		}
		if output != "" {
			cfg.Output = output
		}
		return cfg
	}

	cmd.AddCommand(
		a.newKnowledgeGenerateCmd(config),
		a.newKnowledgeQueryCmd(config),
		a.newKnowledgeTraceCmd(config),
		a.newKnowledgeWatchCmd(config),
	)
	return cmd
}

func (a *app) newKnowledgeGenerateCmd(config func() knowledge.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan the project and write the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, cleanup := a.newGenerator()
			defer cleanup()

			res, err := gen.Generate(cmd.Context(), config())
			defer a.flushMetrics()
			if err != nil {
				return err
			}
			if asJSON {
				return a.out.json(res)
			}
			a.out.knowledgeSummary(res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run result as JSON")
	return cmd
}

func (a *app) newKnowledgeQueryCmd(config func() knowledge.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "Show the symbols, imports and calls recorded for one file",
		Long: `Show everything recorded for one file. FILE is the path relative to the
project root, as listed in .knowledge/manifest.json.

Examples:
  quickgen knowledge query src/App.jsx
  quickgen knowledge query src/utils/date.ts --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(config())
			if err != nil {
				return err
			}
			defer store.Close()

			view, ok := store.QueryFile(args[0])
			if !ok {
				return fmt.Errorf("no knowledge recorded for %s", args[0])
			}
			if asJSON {
				return a.out.json(view)
			}
			a.out.fileView(view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) newKnowledgeTraceCmd(config func() knowledge.Config) *cobra.Command {
	var asJSON, detailed bool
	cmd := &cobra.Command{
		Use:   "trace SYMBOL",
		Short: "Show where a symbol is defined, called and imported",
		Long: `Trace a symbol by name across the knowledge base. Calls and imports
match by name only.

Examples:
  quickgen knowledge trace formatDate
  quickgen knowledge trace useCart --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(config())
			if err != nil {
				return err
			}
			defer store.Close()

			trace, err := store.Trace(args[0], detailed)
			if err != nil {
				return err
			}
			if asJSON {
				return a.out.json(trace)
			}
			a.out.trace(trace)
			return nil
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include the source of each definition")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) newKnowledgeWatchCmd(config func() knowledge.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the knowledge base whenever a source file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config()
			gen, cleanup := a.newGenerator()
			defer cleanup()

			res, err := gen.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a.out.knowledgeSummary(res)
			a.flushMetrics()

			w, err := knowledge.NewWatcher(gen, cfg, knowledge.WatchOptions{
				OnGenerate: func(res *knowledge.Result, err error) {
					if err != nil {
						a.log.Error("Regeneration failed", "error", err)
						return
					}
					a.out.knowledgeSummary(res)
					a.flushMetrics()
				},
			}, a.log)
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("Watching for changes", "root", res.Root)

			<-cmd.Context().Done()
			return w.Stop()
		},
	}
}

// openStore opens the knowledge directory for cfg, pointing at generate
// when it does not exist yet.
func (a *app) openStore(cfg knowledge.Config) (*knowledge.Store, error) {
	root, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	store, err := knowledge.Open(cfg.OutputDir(root), knowledge.StoreConfig{Root: root}, a.log)
	if errors.Is(err, knowledge.ErrNotGenerated) {
		return nil, fmt.Errorf("%w: run `quickgen knowledge generate` first", err)
	}
	return store, err
}
