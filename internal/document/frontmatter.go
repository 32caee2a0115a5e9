// ABOUTME: Frontmatter detection and parsing for notes.
// ABOUTME: Splits YAML or TOML blocks from the body and reads $share routes.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
)

// Frontmatter block kinds.
const (
	MetaYAML = "yaml"
	MetaTOML = "toml"
)

// ShareKey is the frontmatter key listing where a note has been shared.
const ShareKey = "$share"

// SplitFrontmatter separates a leading YAML (---) or TOML (+++) block from the
// note body. Notes without a block return a nil map, an empty kind and the
// text unchanged.
func SplitFrontmatter(text string) (meta map[string]any, kind string, body string, err error) {
	switch {
	case strings.HasPrefix(text, "---\n"), strings.HasPrefix(text, "---\r\n"):
		kind = MetaYAML
	case strings.HasPrefix(text, "+++\n"), strings.HasPrefix(text, "+++\r\n"):
		kind = MetaTOML
	default:
		return nil, "", text, nil
	}

	meta = map[string]any{}
	rest, err := frontmatter.Parse(bytes.NewReader([]byte(text)), &meta)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return meta, kind, string(rest), nil
}

// Shares returns the string entries of the $share key, which may be a list
// or a single string.
func Shares(meta map[string]any) []string {
	switch v := meta[ShareKey].(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
