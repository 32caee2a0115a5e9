// ABOUTME: Lexical and Mobiledoc envelopes holding a single markdown card.
// ABOUTME: Wraps, unwraps, and attaches encoded bodies to posts.
package document

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/2389-research/ghostpost/internal/apperr"
	"github.com/2389-research/ghostpost/internal/models"
)

// Envelope wraps markdown in one of Ghost's native document formats.
type Envelope interface {
	// Format is the config name of the envelope ("lexical" or "mobiledoc").
	Format() string
	// Wrap encodes markdown as a single markdown card plus an empty paragraph.
	Wrap(markdown string) (string, error)
	// Unwrap returns the markdown held by the first markdown card, if any.
	Unwrap(encoded string) (string, bool)
	// Set stores an encoded envelope on the post field Ghost reads it from.
	Set(post *models.Post, encoded string)
	// Get returns the encoded envelope stored on a post.
	Get(post *models.Post) string
}

// EnvelopeFor returns the envelope for a configured format name.
func EnvelopeFor(format string) (Envelope, error) {
	switch strings.ToLower(format) {
	case "lexical":
		return lexicalEnvelope{}, nil
	case "mobiledoc":
		return mobiledocEnvelope{}, nil
	}
	return nil, apperr.Config("unknown document format %q", format)
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

type lexicalEnvelope struct{}

type lexicalBlock struct {
	Children  []any   `json:"children"`
	Direction *string `json:"direction"`
	Format    string  `json:"format"`
	Indent    int     `json:"indent"`
	Type      string  `json:"type"`
	Version   int     `json:"version"`
}

type lexicalMarkdown struct {
	Type     string `json:"type"`
	Version  int    `json:"version"`
	Markdown string `json:"markdown"`
}

func (lexicalEnvelope) Format() string { return "lexical" }

func (lexicalEnvelope) Wrap(markdown string) (string, error) {
	root := lexicalBlock{
		Children: []any{
			lexicalMarkdown{Type: "markdown", Version: 1, Markdown: markdown},
			lexicalBlock{Children: []any{}, Type: "paragraph", Version: 1},
		},
		Type:    "root",
		Version: 1,
	}
	return marshal(map[string]any{"root": root})
}

func (lexicalEnvelope) Unwrap(encoded string) (string, bool) {
	var doc struct {
		Root struct {
			Children []lexicalMarkdown `json:"children"`
		} `json:"root"`
	}
	if err := json.Unmarshal([]byte(encoded), &doc); err != nil {
		return "", false
	}
	for _, child := range doc.Root.Children {
		if child.Type == "markdown" {
			return child.Markdown, true
		}
	}
	return "", false
}

func (lexicalEnvelope) Set(post *models.Post, encoded string) { post.Lexical = encoded }
func (lexicalEnvelope) Get(post *models.Post) string          { return post.Lexical }

type mobiledocEnvelope struct{}

// MobiledocVersion is the Mobiledoc format version written by Wrap.
const MobiledocVersion = "0.3.1"

type mobiledoc struct {
	Version  string            `json:"version"`
	Atoms    []json.RawMessage `json:"atoms"`
	Cards    []json.RawMessage `json:"cards"`
	Markups  []json.RawMessage `json:"markups"`
	Sections []json.RawMessage `json:"sections"`
}

func (mobiledocEnvelope) Format() string { return "mobiledoc" }

func (mobiledocEnvelope) Wrap(markdown string) (string, error) {
	card, err := marshal([]any{"markdown", map[string]string{"markdown": markdown}})
	if err != nil {
		return "", err
	}
	doc := mobiledoc{
		Version: MobiledocVersion,
		Atoms:   []json.RawMessage{},
		Cards:   []json.RawMessage{json.RawMessage(card)},
		Markups: []json.RawMessage{},
		Sections: []json.RawMessage{
			json.RawMessage(`[10,0]`),
			json.RawMessage(`[1,"p",[]]`),
		},
	}
	return marshal(doc)
}

func (mobiledocEnvelope) Unwrap(encoded string) (string, bool) {
	var doc mobiledoc
	if err := json.Unmarshal([]byte(encoded), &doc); err != nil {
		return "", false
	}
	for _, raw := range doc.Cards {
		var card []json.RawMessage
		if err := json.Unmarshal(raw, &card); err != nil || len(card) < 2 {
			continue
		}
		var name string
		if err := json.Unmarshal(card[0], &name); err != nil || name != "markdown" {
			continue
		}
		var payload struct {
			Markdown string `json:"markdown"`
		}
		if err := json.Unmarshal(card[1], &payload); err != nil {
			continue
		}
		return payload.Markdown, true
	}
	return "", false
}

func (mobiledocEnvelope) Set(post *models.Post, encoded string) { post.Mobiledoc = encoded }
func (mobiledocEnvelope) Get(post *models.Post) string          { return post.Mobiledoc }

// ExtractMarkdown returns the markdown card content of a post in either format.
func ExtractMarkdown(post *models.Post) (string, bool) {
	for _, env := range []Envelope{lexicalEnvelope{}, mobiledocEnvelope{}} {
		if encoded := env.Get(post); encoded != "" {
			if md, ok := env.Unwrap(encoded); ok {
				return md, true
			}
		}
	}
	return "", false
}

// HasMarkdownCard reports whether a post's body holds a markdown card.
func HasMarkdownCard(post *models.Post) bool {
	_, ok := ExtractMarkdown(post)
	return ok
}
