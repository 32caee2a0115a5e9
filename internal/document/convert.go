// ABOUTME: Converts a note into a partial Ghost post.
// ABOUTME: Enforces the # heading shape, cleans the body, and wraps it in an envelope.
package document

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/models"
)

// postPattern matches a single-# heading line followed by the body.
var postPattern = regexp.MustCompile(`^#[ \t]*([^#\n][^\n]*)\n((?s:.+))$`)

// ParsePost splits a note body into its heading title and content. Leading
// blank lines are ignored; anything else before the heading is a FormatError.
func ParsePost(body string) (title, content string, err error) {
	body = strings.TrimLeft(body, "\r\n")
	m := postPattern.FindStringSubmatch(body)
	if m == nil {
		return "", "", apperr.Format("Post should start with a # header")
	}
	title = strings.TrimSpace(m[1])
	content = m[2]
	if title == "" || strings.TrimSpace(content) == "" {
		return "", "", apperr.Format("Post should start with a # header")
	}
	return title, content, nil
}

// ConvertBody builds a partial post from a note body without frontmatter.
// The slug is left for the caller.
func ConvertBody(body, format string) (*models.Post, error) {
	env, err := EnvelopeFor(format)
	if err != nil {
		return nil, err
	}
	title, content, err := ParsePost(body)
	if err != nil {
		return nil, err
	}
	cleaned := Clean(content)
	encoded, err := env.Wrap(cleaned)
	if err != nil {
		return nil, err
	}
	post := &models.Post{Title: title}
	env.Set(post, encoded)
	return post, nil
}

// Convert builds a partial post from full note text, frontmatter included.
func Convert(text, format string) (*models.Post, error) {
	_, _, body, err := SplitFrontmatter(text)
	if err != nil {
		return nil, apperr.Format("%v", err)
	}
	return ConvertBody(body, format)
}

// Slugify derives a URL-safe slug, typically from a post title.
func Slugify(s string) (string, error) {
	return slug.Normalize(s)
}
