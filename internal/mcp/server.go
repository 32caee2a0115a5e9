// ABOUTME: MCP server initialization and configuration for ghostpost.
// ABOUTME: Exposes publishing, post listing, and image upload tools for AI agent access.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/logging"
	"github.com/2389-research/ghostpost/internal/publish"
	"github.com/2389-research/ghostpost/internal/storage"
)

// Server wraps the MCP server with the note store and instance config.
type Server struct {
	mcp       *gomcp.Server
	provider  config.Provider
	notes     storage.NoteStore
	publisher *publish.Publisher
	log       logging.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithLogger sets the logger used by tool handlers and the publisher.
func WithLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithClientFactory replaces how publish_note builds Admin API clients.
func WithClientFactory(f publish.ClientFactory) ServerOption {
	return func(s *Server) {
		s.publisher.NewClient = f
	}
}

// NewServer creates an MCP server over the given instances and notes.
// Publishing never prompts: notes need a recorded or explicit route.
func NewServer(provider config.Provider, notes storage.NoteStore, opts ...ServerOption) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("config provider is required")
	}
	if notes == nil {
		return nil, fmt.Errorf("note store is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "ghostpost",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:       mcpServer,
		provider:  provider,
		notes:     notes,
		publisher: &publish.Publisher{Provider: provider, Notes: notes},
		log:       logging.NoOp(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.publisher.Logger = s.log

	s.registerPublishTools()
	s.registerGhostTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolText(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}
