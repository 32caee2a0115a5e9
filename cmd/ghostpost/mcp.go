// ABOUTME: MCP server command implementation for ghostpost.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/ghostpost/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to publish notes,
list posts and upload images. Publishing never prompts, so notes need a
recorded route or an explicit route argument.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol, so the server runs without a log sink.
	server, err := mcppkg.NewServer(globalProvider, globalNotes)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
