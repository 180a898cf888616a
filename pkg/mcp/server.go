package mcp

import (
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/mcplog"
	"github.com/gnana997/quickgen/pkg/scanner"
)

const serverVersion = "0.1.0-dev"

// Config locates the project a Server answers questions about.
type Config struct {
	// Root is the project directory. File arguments are resolved against it
	// and may not escape it.
	Root string
	// KnowledgeDir holds the generated knowledge files. It is opened on the
	// first knowledge query, so the server can start before generation.
	KnowledgeDir string
	Store        knowledge.StoreConfig
	Collect      scanner.CollectOptions
}

// Server exposes quickgen's knowledge queries and documentation previews
// as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	cfg       Config
	scanner   *scanner.Scanner
	calls     *mcplog.Logger // nil disables call logging
	log       *slog.Logger

	mu    sync.Mutex
	store *knowledge.Store
}

// NewServer creates a server. calls may be nil.
func NewServer(cfg Config, sc *scanner.Scanner, calls *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, scanner: sc, calls: calls, log: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if calls != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("quickgen", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: queryFileTool(), Handler: s.handleQueryFile},
		server.ServerTool{Tool: traceSymbolTool(), Handler: s.handleTraceSymbol},
		server.ServerTool{Tool: listComponentsTool(), Handler: s.handleListComponents},
		server.ServerTool{Tool: previewDocsTool(), Handler: s.handlePreviewDocs},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ReloadKnowledge rereads the knowledge files if they were opened already.
func (s *Server) ReloadKnowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Reload()
}

// Close releases the knowledge store.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

func (s *Server) knowledgeStore() (*knowledge.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		return s.store, nil
	}

	cfg := s.cfg.Store
	if cfg.Root == "" {
		cfg.Root = s.cfg.Root
	}
	store, err := knowledge.Open(s.cfg.KnowledgeDir, cfg, s.log)
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}
