package metadata

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// AssemblySet locates textual IL-assembly fixtures (`*.ilasm`, see the
// ilasm package) and per-assembly Manifest files under a root URL, for
// test fixtures and the CLI demo mode (spec §11's "a small corpus of
// hand-written fixture assemblies"). It reuses afs.Service rather than
// os.ReadDir/filepath.Walk so the same corpus can later be served from a
// non-local backend (S3, GCS, ...) without code changes, matching how the
// teacher resolves its own fixture/module paths through afs.Service rather
// than raw os calls.
type AssemblySet struct {
	fs   afs.Service
	root string
}

// NewAssemblySet opens the fixture corpus rooted at root (a local path or
// any afs-supported URL, e.g. "file:///fixtures" or "s3://bucket/prefix").
func NewAssemblySet(root string) *AssemblySet {
	return &AssemblySet{fs: afs.New(), root: root}
}

// AssemblyFixture is one discovered *.ilasm file, optionally paired with a
// manifest of the same base name (foo.ilasm + foo.mod).
type AssemblyFixture struct {
	Name        string // base name, without extension
	SourceURL   string
	ManifestURL string // "" if no matching manifest file exists
}

// List walks the corpus and returns every *.ilasm fixture found.
func (s *AssemblySet) List(ctx context.Context) ([]AssemblyFixture, error) {
	seen := make(map[string]*AssemblyFixture)
	var order []string

	visit := func(parentURL string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		name := info.Name()
		ext := filepath.Ext(name)
		if ext != ".ilasm" && ext != ".mod" {
			return true, nil
		}
		base := strings.TrimSuffix(name, ext)
		fx, ok := seen[base]
		if !ok {
			fx = &AssemblyFixture{Name: base}
			seen[base] = fx
			order = append(order, base)
		}
		url := joinURL(parentURL, name)
		if ext == ".ilasm" {
			fx.SourceURL = url
		} else {
			fx.ManifestURL = url
		}
		return true, nil
	}

	if err := s.fs.Walk(ctx, s.root, visit); err != nil {
		return nil, fmt.Errorf("metadata: walking assembly set %s: %w", s.root, err)
	}

	fixtures := make([]AssemblyFixture, 0, len(order))
	for _, base := range order {
		fixtures = append(fixtures, *seen[base])
	}
	return fixtures, nil
}

// ReadSource returns the raw contents of a fixture's *.ilasm file.
func (s *AssemblySet) ReadSource(ctx context.Context, fx AssemblyFixture) ([]byte, error) {
	if fx.SourceURL == "" {
		return nil, fmt.Errorf("metadata: fixture %q has no *.ilasm source", fx.Name)
	}
	return s.download(ctx, fx.SourceURL)
}

// ReadManifest parses a fixture's companion manifest, if present.
func (s *AssemblySet) ReadManifest(ctx context.Context, fx AssemblyFixture) (*Manifest, error) {
	if fx.ManifestURL == "" {
		return nil, nil
	}
	data, err := s.download(ctx, fx.ManifestURL)
	if err != nil {
		return nil, err
	}
	return ParseManifest(fx.ManifestURL, data)
}

func (s *AssemblySet) download(ctx context.Context, url string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata: reading %s: %w", url, err)
	}
	return data, nil
}

func joinURL(parent, name string) string {
	if strings.HasSuffix(parent, "/") {
		return parent + name
	}
	return parent + "/" + name
}
