// ABOUTME: Markdown file note store rooted at the notes directory.
// ABOUTME: Parses YAML/TOML frontmatter and rewrites $share in place, atomically.
package storage

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/models"
)

// NoteMDStore stores notes as <dir>/<name>.md files.
type NoteMDStore struct {
	dir string // absolute notes root
}

// NewNoteMDStore creates a note store rooted at dir.
func NewNoteMDStore(dir string) (*NoteMDStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notes dir: %w", err)
	}
	return &NoteMDStore{dir: abs}, nil
}

// Dir returns the notes root.
func (s *NoteMDStore) Dir() string {
	return s.dir
}

// inside resolves rel against base and rejects results outside the notes root.
func (s *NoteMDStore) inside(base, rel string) (string, error) {
	path := filepath.Clean(filepath.Join(base, filepath.FromSlash(rel)))
	r, err := filepath.Rel(s.dir, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the notes dir", rel)
	}
	return path, nil
}

func (s *NoteMDStore) notePath(name string) (string, error) {
	name = strings.TrimSuffix(name, ".md")
	if name == "" {
		return "", fmt.Errorf("note name is required")
	}
	return s.inside(s.dir, name+".md")
}

// Read loads a note by name.
func (s *NoteMDStore) Read(name string) (*models.Note, error) {
	path, err := s.notePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("note %q not found", name)
		}
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	text := string(data)
	meta, kind, body, err := document.SplitFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("note %q: %w", name, err)
	}
	return &models.Note{
		Name:     strings.TrimSuffix(name, ".md"),
		Path:     path,
		Text:     text,
		Body:     body,
		Meta:     meta,
		MetaKind: kind,
		Shares:   document.Shares(meta),
	}, nil
}

// SetShare records route in the note's $share list.
func (s *NoteMDStore) SetShare(name string, route models.Route) error {
	note, err := s.Read(name)
	if err != nil {
		return err
	}

	shares := []string{route.String()}
	for _, entry := range note.Shares {
		if !models.IsRoute(entry) {
			shares = append(shares, entry)
		}
	}

	meta := note.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	meta[document.ShareKey] = shares

	kind := note.MetaKind
	if kind == "" {
		kind = document.MetaYAML
	}
	content, err := renderFrontmatter(kind, meta, bodyAfterFrontmatter(note.Text, note.MetaKind))
	if err != nil {
		return fmt.Errorf("failed to render note: %w", err)
	}
	return atomicWrite(note.Path, []byte(content))
}

// ReadAttachment reads a file referenced from the note, relative to the
// note's directory. References must stay inside the notes dir.
func (s *NoteMDStore) ReadAttachment(name, ref string) ([]byte, error) {
	path, err := s.notePath(name)
	if err != nil {
		return nil, err
	}
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	base := filepath.Dir(path)
	if strings.HasPrefix(ref, "/") {
		base = s.dir
	}
	target, err := s.inside(base, strings.TrimPrefix(ref, "/"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %q: %w", ref, err)
	}
	return data, nil
}

// List returns every note name below the root, skipping hidden directories.
func (s *NoteMDStore) List() ([]string, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil, nil
	}

	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return nil
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ".md")))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// bodyAfterFrontmatter returns the text following the closing delimiter
// line, byte for byte. Text without frontmatter is returned unchanged.
func bodyAfterFrontmatter(text, kind string) string {
	delim := "---"
	switch kind {
	case document.MetaYAML:
	case document.MetaTOML:
		delim = "+++"
	default:
		return text
	}

	firstEnd := strings.IndexByte(text, '\n')
	if firstEnd < 0 {
		return ""
	}
	rest := text[firstEnd+1:]
	offset := firstEnd + 1
	for {
		lineEnd := strings.IndexByte(rest, '\n')
		line := rest
		if lineEnd >= 0 {
			line = rest[:lineEnd]
		}
		if strings.TrimRight(line, "\r \t") == delim {
			if lineEnd < 0 {
				return ""
			}
			return text[offset+lineEnd+1:]
		}
		if lineEnd < 0 {
			return ""
		}
		rest = rest[lineEnd+1:]
		offset += lineEnd + 1
	}
}

// renderFrontmatter serialises meta in the given block format ahead of body.
func renderFrontmatter(kind string, meta map[string]any, body string) (string, error) {
	var buf bytes.Buffer
	switch kind {
	case document.MetaTOML:
		data, err := toml.Marshal(meta)
		if err != nil {
			return "", err
		}
		buf.WriteString("+++\n")
		buf.Write(data)
		buf.WriteString("+++\n")
	default:
		data, err := yaml.Marshal(meta)
		if err != nil {
			return "", err
		}
		buf.WriteString("---\n")
		buf.Write(data)
		buf.WriteString("---\n")
	}
	buf.WriteString(body)
	return buf.String(), nil
}

// atomicWrite writes data to a temp file beside path and renames it over path.
func atomicWrite(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
