package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrObjectNotFound is returned by a Destination for a missing archive.
var ErrObjectNotFound = errors.New("backup object not found")

// Destination stores archives by slash-separated object name.
type Destination interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the object stored under name.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the names of all objects starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalDestination keeps archives as files under a root directory.
type LocalDestination struct {
	root string
}

// NewLocalDestination creates root if needed.
func NewLocalDestination(root string) (*LocalDestination, error) {
	if root == "" {
		return nil, fmt.Errorf("NewLocalDestination: directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("NewLocalDestination: create %q: %w", root, err)
	}
	return &LocalDestination{root: root}, nil
}

func (d *LocalDestination) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(d.root, clean), nil
}

func (d *LocalDestination) Put(ctx context.Context, name string, data []byte) error {
	p, err := d.path(name)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("Put: create directory: %w", err)
	}

	// Write to a temp file first so a crash never leaves a truncated archive.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("Put: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("Put: rename: %w", err)
	}
	return nil
}

func (d *LocalDestination) Get(ctx context.Context, name string) ([]byte, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Get: %s: %w", name, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: read %q: %w", p, err)
	}
	return data, nil
}

func (d *LocalDestination) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("List: walk %q: %w", d.root, err)
	}
	sort.Strings(names)
	return names, nil
}

var _ Destination = (*LocalDestination)(nil)
