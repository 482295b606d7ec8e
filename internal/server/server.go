package server

import (
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/browser-cli/internal/browser"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server exposes a browser session as MCP tools and resources.
type Server struct {
	session *browser.Session
	cache   *SnapshotCache
	mcp     *mcpserver.MCPServer
}

// New launches a browser session and wires every tool and resource onto a
// fresh MCP server.
func New(browserCfg browser.Config, cfg Config) (*Server, error) {
	session, err := browser.Launch(browserCfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		session: session,
		cache:   NewSnapshotCache(cfg.CacheTTL),
	}
	s.mcp = mcpserver.NewMCPServer(
		"browser-cli",
		"1.0.0",
		mcpserver.WithResourceCapabilities(true, true),
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Serve blocks running the configured transport. The browser session is
// closed when the transport returns.
func (s *Server) Serve(cfg Config) error {
	defer s.session.Close()

	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// Close releases the browser session.
func (s *Server) Close() error {
	return s.session.Close()
}
