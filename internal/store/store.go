// Package store reads documents from a markdown vault: a directory tree of
// .md files with optional yaml frontmatter and inline #tags.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	appLog "notecal/internal/log"
	"notecal/internal/model"
)

// ErrNotFound indicates the requested document id is not in the vault.
var ErrNotFound = errors.New("store: document not found")

var (
	frontmatterDelim = []byte("---")
	inlineTagRe      = regexp.MustCompile(`#[A-Za-z][A-Za-z0-9_/-]*`)
)

// Vault is a filesystem-backed note store.
type Vault struct {
	root string
}

// Open validates that root exists and is a directory.
func Open(root string) (*Vault, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("store: open vault %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: vault %q is not a directory", root)
	}
	return &Vault{root: root}, nil
}

// Root returns the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// ListDocuments walks the vault and returns a snapshot of every markdown
// note. Files that cannot be read or whose frontmatter does not parse are
// logged and skipped; one broken note never hides the rest.
func (v *Vault) ListDocuments() ([]model.Document, error) {
	var docs []model.Document

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			// Hidden directories (.obsidian, .git, ...) are not notes.
			if path != v.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)

		doc, err := v.readDocument(id, path)
		if err != nil {
			appLog.Error("document skipped", err, "id", id)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: walk vault: %w", err)
	}
	return docs, nil
}

// ReadContent returns a note's body with the frontmatter block stripped.
// Preview consumers use this; the query path never does.
func (v *Vault) ReadContent(id string) (string, error) {
	path, err := v.resolve(id)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	_, body := splitFrontmatter(raw)
	return string(body), nil
}

func (v *Vault) resolve(id string) (string, error) {
	path := filepath.Join(v.root, filepath.FromSlash(id))
	// Reject ids that escape the vault.
	rel, err := filepath.Rel(v.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrNotFound
	}
	return path, nil
}

func (v *Vault) readDocument(id, path string) (model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}

	fmRaw, body := splitFrontmatter(raw)

	frontmatter := map[string]any{}
	if len(fmRaw) > 0 {
		if err := yaml.Unmarshal(fmRaw, &frontmatter); err != nil {
			return model.Document{}, fmt.Errorf("frontmatter: %w", err)
		}
	}

	title := strings.TrimSuffix(filepath.Base(path), ".md")

	return model.Document{
		ID:          id,
		Title:       title,
		Frontmatter: frontmatter,
		InlineTags:  scanInlineTags(body),
	}, nil
}

// splitFrontmatter separates a leading "---" yaml block from the body.
// Notes without a block yield nil frontmatter and the full content.
func splitFrontmatter(raw []byte) (frontmatter, body []byte) {
	if !bytes.HasPrefix(raw, frontmatterDelim) {
		return nil, raw
	}
	rest := raw[len(frontmatterDelim):]
	if len(rest) == 0 || (rest[0] != '\n' && !bytes.HasPrefix(rest, []byte("\r\n"))) {
		return nil, raw
	}

	// Find the closing delimiter on its own line.
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return nil, raw
	}
	fm := rest[:idx]
	after := rest[idx+len("\n---"):]
	// The close must be a full line: "---\n" or "---" at EOF.
	after = bytes.TrimPrefix(after, []byte("\r"))
	if len(after) > 0 && after[0] != '\n' {
		return nil, raw
	}
	if len(after) > 0 {
		after = after[1:]
	}
	return fm, after
}

func scanInlineTags(body []byte) []string {
	matches := inlineTagRe.FindAll(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var tags []string
	for _, m := range matches {
		tag := strings.TrimPrefix(string(m), "#")
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
