// ABOUTME: Local image reference discovery and rewriting in markdown bodies.
// ABOUTME: Used to upload note images and point links at hosted URLs.
package document

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ImageRefs lists local image destinations in a markdown body, in document
// order and without duplicates. Remote URLs, data URIs and protocol-relative
// references are skipped.
func ImageRefs(md string) []string {
	doc := markdown.Parser().Parse(text.NewReader([]byte(md)))
	seen := map[string]bool{}
	var refs []string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		if isLocalRef(dest) && !seen[dest] {
			seen[dest] = true
			refs = append(refs, dest)
		}
		return ast.WalkContinue, nil
	})
	return refs
}

func isLocalRef(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "//") || strings.HasPrefix(dest, "data:") {
		return false
	}
	return !strings.Contains(dest, "://")
}

var (
	inlineImagePattern = regexp.MustCompile(`!\[(?:[^\]\\\n]|\\.)*\]\([ \t]*(<[^>\n]*>|[^\s()]+)`)
	imageDefPattern    = regexp.MustCompile(`(?m)^ {0,3}\[[^\]\n]+\]:[ \t]*(<[^>\n]*>|\S+)`)
)

// ReplaceImageRefs rewrites image destinations using the old -> new mapping.
// Destinations are matched after unwrapping <...> and backslash escapes, the
// same way ImageRefs reports them. Code and raw HTML are left untouched.
func ReplaceImageRefs(md string, urls map[string]string) string {
	if len(urls) == 0 {
		return md
	}
	var b strings.Builder
	pos := 0
	for _, r := range protectedRanges([]byte(md)) {
		if r[0] < pos {
			continue
		}
		b.WriteString(replaceDestinations(md[pos:r[0]], urls))
		b.WriteString(md[r[0]:r[1]])
		pos = r[1]
	}
	b.WriteString(replaceDestinations(md[pos:], urls))
	return b.String()
}

func replaceDestinations(s string, urls map[string]string) string {
	s = spliceDestinations(s, inlineImagePattern, urls)
	return spliceDestinations(s, imageDefPattern, urls)
}

// spliceDestinations swaps the first capture group of every match whose
// destination is in urls.
func spliceDestinations(s string, re *regexp.Regexp, urls map[string]string) string {
	var b strings.Builder
	pos := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > 0 && s[m[0]-1] == '\\' {
			continue
		}
		start, end := m[2], m[3]
		raw := s[start:end]
		if strings.HasPrefix(raw, "<") {
			raw = strings.TrimSuffix(raw[1:], ">")
		}
		url, ok := urls[unescapeDestination(raw)]
		if !ok {
			continue
		}
		b.WriteString(s[pos:start])
		b.WriteString(url)
		pos = end
	}
	if pos == 0 {
		return s
	}
	b.WriteString(s[pos:])
	return b.String()
}

func unescapeDestination(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}
