// ABOUTME: Core data models for Ghost posts, uploaded images, notes, and publish routes.
// ABOUTME: Mirrors the Admin API resource shapes and the local share-route annotation.
package models

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// Post statuses accepted by the Admin API.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post mirrors a Ghost post or page resource. Only the fields this tool sets or
// reads are modelled; omitempty keeps partial payloads partial. Timestamps stay
// as the server's strings so updated_at round-trips byte for byte.
type Post struct {
	ID          string     `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	Title       string     `json:"title,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Lexical     string     `json:"lexical,omitempty"`
	Mobiledoc   string     `json:"mobiledoc,omitempty"`
	Status      string     `json:"status,omitempty"`
	Visibility  string     `json:"visibility,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	PublishedAt string     `json:"published_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty"` // echoed back verbatim on update
	Tags        []Tag      `json:"tags,omitempty"`
	PrimaryTag  *Tag       `json:"primary_tag,omitempty"`
	URL         string     `json:"url,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`
}

// Tag is a Ghost tag attached to a post.
type Tag struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Image is the reference returned by the image upload endpoint.
type Image struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// Note is a locally authored markdown document.
type Note struct {
	Name     string         // note name, relative to the notes dir, without .md
	Path     string         // absolute file path
	Text     string         // full file contents, frontmatter included
	Body     string         // text after the frontmatter block
	Meta     map[string]any // parsed frontmatter
	MetaKind string         // "yaml", "toml", or "" when the note has none
	Shares   []string       // $share entries
}

// ContentType selects between Ghost posts and pages.
type ContentType string

const (
	TypePost ContentType = "post"
	TypePage ContentType = "page"
)

// Resource returns the Admin API collection name for the content type.
func (t ContentType) Resource() string {
	return string(t) + "s"
}

// ParseContentType validates a post|page string.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case TypePost, TypePage:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("invalid content type %q: must be post or page", s)
}

// RouteScheme prefixes every share-route annotation.
const RouteScheme = "ghost"

// Route binds a note to a remote instance, content type and slug.
type Route struct {
	Instance string
	Type     ContentType
	Slug     string
}

// ParseRoute parses a "ghost:<instance>:<post|page>:<slug>" annotation.
func ParseRoute(s string) (Route, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 || parts[0] != RouteScheme {
		return Route{}, fmt.Errorf("invalid share route %q: want ghost:<instance>:<post|page>:<slug>", s)
	}
	ct, err := ParseContentType(parts[2])
	if err != nil {
		return Route{}, err
	}
	if parts[1] == "" || parts[3] == "" {
		return Route{}, fmt.Errorf("invalid share route %q: empty instance or slug", s)
	}
	if !slug.IsValid(parts[3]) {
		return Route{}, fmt.Errorf("invalid share route %q: %q is not a url slug", s, parts[3])
	}
	return Route{Instance: parts[1], Type: ct, Slug: parts[3]}, nil
}

// IsRoute reports whether a share entry belongs to this tool.
func IsRoute(s string) bool {
	return strings.HasPrefix(s, RouteScheme+":")
}

// String renders the route annotation.
func (r Route) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", RouteScheme, r.Instance, r.Type, r.Slug)
}
