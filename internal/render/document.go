package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is one input handed to a renderer's Stage call.
type Document struct {
	Name    string
	Path    string
	Content string
}

// LoadDocuments reads every regular file directly inside dir, sorted by name.
// When exts is non-empty only files with one of those extensions are read.
func LoadDocuments(dir string, exts ...string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	var docs []Document
	for _, e := range entries {
		if !e.Type().IsRegular() || !matchExt(e.Name(), exts) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		docs = append(docs, Document{Name: e.Name(), Path: path, Content: string(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func matchExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
