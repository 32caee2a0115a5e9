// ABOUTME: Tests for the MCP tool handlers.
// ABOUTME: Covers publish_note, list_posts, and upload_image against the in-memory Admin API.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/ghosttest"
	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/storage"
)

type testEnv struct {
	srv    *ghosttest.Server
	dir    string
	server *Server
}

func makeServer(t *testing.T) *testEnv {
	t.Helper()
	srv := ghosttest.NewServer(t)
	notes, err := storage.NewNoteMDStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewNoteMDStore error: %v", err)
	}
	cfg := &config.Config{}
	cfg.SetInstance("blog", config.InstanceSettings{URL: srv.URL})
	provider := config.NewFileProvider(cfg, map[string]string{config.SecretKey("blog"): ghosttest.AdminKey})

	server, err := NewServer(provider, notes)
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return &testEnv{srv: srv, dir: notes.Dir(), server: server}
}

func (e *testEnv) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func callTool(t *testing.T, s *Server, name string, args interface{}) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}
	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}
	ctx := context.Background()

	var result *gomcp.CallToolResult
	switch name {
	case "publish_note":
		result, err = s.handlePublishNote(ctx, req)
	case "list_posts":
		result, err = s.handleListPosts(ctx, req)
	case "upload_image":
		result, err = s.handleUploadImage(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func getTextContent(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	tc, ok := result.Content[0].(*gomcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestPublishNoteWithRoute(t *testing.T) {
	env := makeServer(t)
	env.write(t, "hello.md", "# Hello\nWorld\n")

	result := callTool(t, env.server, "publish_note", map[string]interface{}{
		"name":  "hello",
		"route": "ghost:blog:post:hello",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", getTextContent(t, result))
	}
	if text := getTextContent(t, result); !strings.Contains(text, "ghost:blog:post:hello") {
		t.Errorf("expected route in result, got %q", text)
	}
	if _, ok := env.srv.Get("posts", "hello"); !ok {
		t.Error("expected post on server")
	}

	data, _ := os.ReadFile(filepath.Join(env.dir, "hello.md"))
	if !strings.Contains(string(data), "ghost:blog:post:hello") {
		t.Errorf("expected route recorded in note, got %q", data)
	}
}

func TestPublishNoteWithoutRouteIsError(t *testing.T) {
	env := makeServer(t)
	env.write(t, "hello.md", "# Hello\nWorld\n")

	result := callTool(t, env.server, "publish_note", map[string]interface{}{"name": "hello"})
	if !result.IsError {
		t.Fatal("expected error for note without a route")
	}
	if len(env.srv.Requests()) != 0 {
		t.Error("expected no network calls")
	}
}

func TestPublishNoteInvalidRoute(t *testing.T) {
	env := makeServer(t)
	result := callTool(t, env.server, "publish_note", map[string]interface{}{
		"name":  "hello",
		"route": "ghost:blog:story:hello",
	})
	if !result.IsError || !strings.Contains(getTextContent(t, result), "invalid route") {
		t.Errorf("expected invalid route error, got %+v", result)
	}
}

func TestPublishNoteMissingName(t *testing.T) {
	env := makeServer(t)
	result := callTool(t, env.server, "publish_note", map[string]interface{}{})
	if !result.IsError {
		t.Error("expected error for missing name")
	}
}

func TestListPosts(t *testing.T) {
	env := makeServer(t)
	env.srv.Seed("posts", models.Post{Title: "First", Slug: "first", Status: models.StatusPublished, PublishedAt: "2024-01-01T00:00:00.000Z"})

	result := callTool(t, env.server, "list_posts", map[string]interface{}{"instance": "blog"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", getTextContent(t, result))
	}
	text := getTextContent(t, result)
	if !strings.Contains(text, "First") || !strings.Contains(text, "first") {
		t.Errorf("expected post in listing, got %q", text)
	}

	result = callTool(t, env.server, "list_posts", map[string]interface{}{"instance": "blog", "markdown_only": true})
	if text := getTextContent(t, result); text != "No posts found." {
		t.Errorf("expected no markdown posts, got %q", text)
	}
}

func TestListPostsUnknownInstance(t *testing.T) {
	env := makeServer(t)
	result := callTool(t, env.server, "list_posts", map[string]interface{}{"instance": "nope"})
	if !result.IsError {
		t.Error("expected error for unknown instance")
	}
}

func TestUploadImage(t *testing.T) {
	env := makeServer(t)
	env.write(t, "posts/a.md", "# A\n![x](cat.png)\n")
	env.write(t, "posts/cat.png", "\x89PNG\r\n\x1a\n")

	result := callTool(t, env.server, "upload_image", map[string]interface{}{
		"instance": "blog",
		"note":     "posts/a",
		"ref":      "cat.png",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", getTextContent(t, result))
	}
	if text := getTextContent(t, result); !strings.HasSuffix(text, "/cat.png") {
		t.Errorf("expected uploaded URL, got %q", text)
	}
	uploads := env.srv.Uploads()
	if len(uploads) != 1 || uploads[0].ContentType != "image/png" {
		t.Errorf("unexpected uploads %+v", uploads)
	}
}

func TestUploadImageMissingFile(t *testing.T) {
	env := makeServer(t)
	result := callTool(t, env.server, "upload_image", map[string]interface{}{
		"instance": "blog",
		"note":     "a",
		"ref":      "missing.png",
	})
	if !result.IsError {
		t.Error("expected error for missing attachment")
	}
}
