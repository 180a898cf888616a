package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnana997/quickgen/pkg/knowledge"
	mcpserver "github.com/gnana997/quickgen/pkg/mcp"
	"github.com/gnana997/quickgen/pkg/mcplog"
	"github.com/gnana997/quickgen/pkg/parser"
	"github.com/gnana997/quickgen/pkg/scanner"
)

func (a *app) newServeCmd() *cobra.Command {
	var (
		dir   string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdin/stdout",
		Long: `Serve the knowledge base and the documentation preview to MCP clients
over stdio. Tools: query_file, trace_symbol, list_components, preview_docs.

With --watch the knowledge base is regenerated on every source change and
the server picks up the new data immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Knowledge.generator()
			if dir != "" {
				cfg.Dir = dir
			}
			root, err := filepath.Abs(cfg.Dir)
			if err != nil {
				return err
			}

			calls, err := mcplog.Open(a.cfg.MCP.LogFile)
			if err != nil {
				return err
			}
			defer calls.Close()

			pm := parser.NewParserManager(a.log)
			defer pm.Close()

			srv := mcpserver.NewServer(mcpserver.Config{
				Root:         root,
				KnowledgeDir: cfg.OutputDir(root),
				Collect:      a.cfg.Docs.collect(),
			}, scanner.NewScanner(pm, a.log), calls, a.log)
			defer srv.Close()

			if watch {
				gen, cleanup := a.newGenerator()
				defer cleanup()

				if _, err := gen.Generate(cmd.Context(), cfg); err != nil {
					return err
				}
				w, err := knowledge.NewWatcher(gen, cfg, knowledge.WatchOptions{
					OnGenerate: func(_ *knowledge.Result, err error) {
						if err != nil {
							a.log.Error("Regeneration failed", "error", err)
							return
						}
						if err := srv.ReloadKnowledge(); err != nil {
							a.log.Warn("Failed to reload knowledge base", "error", err)
						}
					},
				}, a.log)
				if err != nil {
					return err
				}
				if err := w.Start(cmd.Context()); err != nil {
					return err
				}
				defer w.Stop()
			}

			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "project root (default from config, else .)")
	cmd.Flags().BoolVar(&watch, "watch", false, "regenerate the knowledge base on change")
	return cmd
}

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .quickgen/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeDefaultConfig(a.configFile, force); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", a.configFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
