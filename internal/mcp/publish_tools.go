// ABOUTME: MCP tool implementation for publishing notes.
// ABOUTME: Registers publish_note, which upserts a note on its recorded or given route.
package mcp

import (
	"context"
	"encoding/json"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/publish"
)

func (s *Server) registerPublishTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "publish_note",
		Description: "Publish a local markdown note to Ghost, creating or updating the post or page with its slug. The note must start with a '# Title' heading.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Note name relative to the notes directory, without .md", "minLength": 1},
				"route": {"type": "string", "description": "Share route ghost:<instance>:<post|page>:<slug>. Required unless the note already records one."},
				"upload_images": {"type": "boolean", "description": "Upload local images referenced by the note and rewrite their links"}
			},
			"required": ["name"]
		}`),
	}, s.handlePublishNote)
}

func (s *Server) handlePublishNote(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Name         string `json:"name"`
		Route        string `json:"route"`
		UploadImages bool   `json:"upload_images"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	args.Name = strings.TrimSpace(args.Name)
	if args.Name == "" {
		return toolError("name is required"), nil
	}

	opts := publish.Options{UploadImages: args.UploadImages}
	if args.Route != "" {
		route, err := models.ParseRoute(args.Route)
		if err != nil {
			return toolError("invalid route: %v", err), nil
		}
		opts.Route = &route
	}

	res, err := s.publisher.Publish(ctx, args.Name, opts)
	if err != nil {
		s.log.Warn("publish_note failed", "note", args.Name, "error", err)
		return toolError("failed to publish %s: %v", args.Name, err), nil
	}

	var sb strings.Builder
	sb.WriteString("Published " + res.Route.String())
	if res.Post != nil {
		sb.WriteString(" (id " + res.Post.ID + ", status " + res.Post.Status + ")")
		if res.Post.URL != "" {
			sb.WriteString("\n" + res.Post.URL)
		}
	}
	for _, img := range res.Uploaded {
		sb.WriteString("\nuploaded " + img.Ref + " -> " + img.URL)
	}
	return toolText("%s", sb.String()), nil
}
