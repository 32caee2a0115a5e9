// ABOUTME: MCP tool implementations that query a Ghost instance directly.
// ABOUTME: Registers list_posts and upload_image.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/ghost"
)

func (s *Server) registerGhostTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_posts",
		Description: "List posts on a Ghost instance, newest first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"instance": {"type": "string", "description": "Configured Ghost instance name", "minLength": 1},
				"markdown_only": {"type": "boolean", "description": "Only posts whose body is a markdown card"},
				"limit": {"type": "number", "description": "Maximum number of posts (default all)"}
			},
			"required": ["instance"]
		}`),
	}, s.handleListPosts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "upload_image",
		Description: "Upload an image referenced from a note to a Ghost instance and return its URL.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"instance": {"type": "string", "description": "Configured Ghost instance name", "minLength": 1},
				"note": {"type": "string", "description": "Note the image is referenced from", "minLength": 1},
				"ref": {"type": "string", "description": "Image path as written in the note", "minLength": 1}
			},
			"required": ["instance", "note", "ref"]
		}`),
	}, s.handleUploadImage)
}

func (s *Server) client(instance string) (*ghost.Client, error) {
	ic, err := config.Resolve(s.provider, instance)
	if err != nil {
		return nil, err
	}
	return ghost.FromInstance(ic, ghost.WithLogger(s.log)), nil
}

func (s *Server) handleListPosts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Instance     string `json:"instance"`
		MarkdownOnly bool   `json:"markdown_only"`
		Limit        int    `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Instance == "" {
		return toolError("instance is required"), nil
	}

	client, err := s.client(args.Instance)
	if err != nil {
		return toolError("%v", err), nil
	}
	posts, err := client.ListPosts(ctx, ghost.ListOptions{Limit: args.Limit, MarkdownOnly: args.MarkdownOnly})
	if err != nil {
		return toolError("failed to list posts: %v", err), nil
	}
	if len(posts) == 0 {
		return toolText("No posts found."), nil
	}

	var sb strings.Builder
	for _, p := range posts {
		date := p.PublishedAt
		if date == "" {
			date = "unpublished"
		}
		sb.WriteString(fmt.Sprintf("---\n%s [%s] %s (%s)", p.Title, p.Status, p.Slug, date))
		if document.HasMarkdownCard(p) {
			sb.WriteString(" md")
		}
		sb.WriteString("\n")
	}
	return toolText("%s", sb.String()), nil
}

func (s *Server) handleUploadImage(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Instance string `json:"instance"`
		Note     string `json:"note"`
		Ref      string `json:"ref"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Instance == "" || args.Note == "" || args.Ref == "" {
		return toolError("instance, note and ref are required"), nil
	}

	client, err := s.client(args.Instance)
	if err != nil {
		return toolError("%v", err), nil
	}
	data, err := s.notes.ReadAttachment(args.Note, args.Ref)
	if err != nil {
		return toolError("%v", err), nil
	}
	img, err := client.UploadImage(ctx, path.Base(args.Ref), data)
	if err != nil {
		return toolError("failed to upload %s: %v", args.Ref, err), nil
	}
	return toolText("%s", img.URL), nil
}
