// ABOUTME: Strips note-space markup (wiki links, embeds, attributes, commands) from markdown.
// ABOUTME: Uses the goldmark AST to leave code and raw HTML untouched.
package document

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var (
	embedPattern     = regexp.MustCompile(`!\[\[[^\]\n]+\]\]`)
	aliasLinkPattern = regexp.MustCompile(`\[\[[^\]|\n]+\|([^\]\n]+)\]\]`)
	wikiLinkPattern  = regexp.MustCompile(`\[\[([^\]\n]+)\]\]`)
	commandPattern   = regexp.MustCompile(`\{\[[^\]\n]+\]\}`)
	attributePattern = regexp.MustCompile(`\[[A-Za-z_][\w-]*:\s[^\]\n]*\]`)
)

// Clean strips note-space constructs that mean nothing on a Ghost site.
// Code spans, code blocks and raw HTML are left untouched.
func Clean(md string) string {
	src := []byte(md)
	var b strings.Builder
	pos := 0
	for _, r := range protectedRanges(src) {
		if r[0] < pos {
			continue
		}
		b.WriteString(cleanSegment(md[pos:r[0]], false))
		b.WriteString(md[r[0]:r[1]])
		pos = r[1]
	}
	b.WriteString(cleanSegment(md[pos:], true))
	return b.String()
}

// cleanSegment cleans text between protected ranges. final marks the
// segment that runs to the end of the document.
func cleanSegment(s string, final bool) string {
	s = embedPattern.ReplaceAllString(s, "")
	s = aliasLinkPattern.ReplaceAllString(s, "$1")
	s = wikiLinkPattern.ReplaceAllString(s, "$1")
	s = commandPattern.ReplaceAllString(s, "")
	return stripAttributes(s, final)
}

// stripAttributes removes [key: value] attributes that are not link text.
// An attribute that ends its line takes the blanks before it along.
func stripAttributes(s string, final bool) string {
	matches := attributePattern.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		if m[1] < len(s) && (s[m[1]] == '(' || s[m[1]] == '[') {
			continue
		}
		kept := s[pos:m[0]]
		if endsLine(s, m[1], final) {
			kept = strings.TrimRight(kept, " \t")
		}
		b.WriteString(kept)
		pos = m[1]
	}
	b.WriteString(s[pos:])
	return b.String()
}

func endsLine(s string, i int, final bool) bool {
	if i == len(s) {
		return final
	}
	return s[i] == '\n' || s[i] == '\r'
}

// protectedRanges returns sorted byte ranges of code and raw HTML.
func protectedRanges(src []byte) [][2]int {
	doc := markdown.Parser().Parse(text.NewReader(src))
	var ranges [][2]int

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			if r, ok := linesRange(n.Lines()); ok {
				ranges = append(ranges, r)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			first, last := node.FirstChild(), node.LastChild()
			ft, ok1 := first.(*ast.Text)
			lt, ok2 := last.(*ast.Text)
			if ok1 && ok2 {
				ranges = append(ranges, [2]int{ft.Segment.Start, lt.Segment.Stop})
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			if r, ok := linesRange(node.Segments); ok {
				ranges = append(ranges, r)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	return ranges
}

func linesRange(lines *text.Segments) ([2]int, bool) {
	if lines == nil || lines.Len() == 0 {
		return [2]int{}, false
	}
	return [2]int{lines.At(0).Start, lines.At(lines.Len() - 1).Stop}, true
}
