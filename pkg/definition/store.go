package definition

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Store indexes decoded webform definitions by form id. It is safe for
// concurrent readers when treated as immutable after construction.
type Store struct {
	forms   map[string]*Form
	sources map[string]string
}

// NewStore builds a store from already decoded forms. Duplicate or empty ids
// are rejected.
func NewStore(forms ...*Form) (*Store, error) {
	store := &Store{
		forms:   make(map[string]*Form, len(forms)),
		sources: make(map[string]string, len(forms)),
	}
	for _, form := range forms {
		if err := store.add(form, ""); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadFS walks the filesystem and decodes every JSON/YAML definition it finds.
// When fsys is nil or holds no definition files the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{
		forms:   make(map[string]*Form),
		sources: make(map[string]string),
	}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		doc, err := NewDocument(SourceFromFS(path), data)
		if err != nil {
			return fmt.Errorf("definition: %s: %w", path, err)
		}
		form, err := DecodeDocument(doc)
		if err != nil {
			return err
		}
		return store.add(form, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Form returns the definition registered under id.
func (s *Store) Form(id string) (*Form, bool) {
	if s == nil {
		return nil, false
	}
	form, ok := s.forms[strings.TrimSpace(id)]
	return form, ok
}

// IDs returns the registered form ids, sorted.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether the store holds any forms.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

func (s *Store) add(form *Form, source string) error {
	if form == nil {
		return fmt.Errorf("definition: nil form (file %s)", source)
	}
	id := strings.TrimSpace(form.ID)
	if id == "" {
		return fmt.Errorf("definition: file %s defines a form without id", source)
	}
	if previous, exists := s.forms[id]; exists && previous != nil {
		return fmt.Errorf("definition: duplicate form %q (file %s, first seen in %s)", id, source, s.sources[id])
	}
	s.forms[id] = form
	s.sources[id] = source
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
