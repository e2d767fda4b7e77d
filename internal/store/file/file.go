package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/sitenotifier/internal/domain"
	"github.com/hamed0406/sitenotifier/internal/store"
)

var _ store.SiteStore = (*Store)(nil)

// Format is the encoding of a site list file.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks the format from the file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Store keeps the site list in a single flat file.
type Store struct {
	Path   string
	Format Format
}

func New(path string) *Store {
	return &Store{Path: path, Format: FormatFor(path)}
}

func (s *Store) Load(ctx context.Context) ([]domain.Site, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read site list: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var sites []domain.Site
	switch s.Format {
	case YAML:
		err = yaml.Unmarshal(data, &sites)
	default:
		err = json.Unmarshal(data, &sites)
	}
	if err != nil {
		return nil, fmt.Errorf("parse site list %s: %w", s.Path, err)
	}
	return sites, nil
}

// Save replaces the file atomically: the list is written to a temp file in
// the same directory which is then renamed over the original.
func (s *Store) Save(ctx context.Context, sites []domain.Site) error {
	if sites == nil {
		sites = []domain.Site{}
	}
	data, err := s.encode(sites)
	if err != nil {
		return fmt.Errorf("encode site list: %w", err)
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.Path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".sites-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace site list: %w", err)
	}
	return nil
}

func (s *Store) encode(sites []domain.Site) ([]byte, error) {
	var buf bytes.Buffer
	switch s.Format {
	case YAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(sites); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sites); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
