package metadata

import (
	"fmt"
	"sort"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

// AssemblyReference names another assembly and, optionally, the minimum
// version of it this assembly was compiled against (ECMA-335's AssemblyRef
// table, §II.22.5).
type AssemblyReference struct {
	Name    string
	Version string // semver-shaped, e.g. "v1.2.3"
}

// Manifest describes one test/demo assembly: its own name and the
// assemblies it references. Real assembly manifests come from the PE
// metadata's Assembly and AssemblyRef tables; for fixtures and the CLI demo
// mode we describe them with a go.mod-shaped text file (an assembly, like a
// Go module, is named and versioned and references others by name+version)
// and parse it with the real go.mod parser rather than inventing a bespoke
// format.
type Manifest struct {
	Name         string
	References   []AssemblyReference
}

// ParseManifest parses a go.mod-shaped manifest: the `module` directive
// names the assembly, and each `require` directive names a referenced
// assembly and its version.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	modFile, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse assembly manifest %s: %w", path, err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("assembly manifest %s has no module/assembly declaration", path)
	}
	m := &Manifest{Name: modFile.Module.Mod.Path}
	for _, req := range modFile.Require {
		version := req.Mod.Version
		if version != "" && !semver.IsValid(version) {
			return nil, fmt.Errorf("assembly manifest %s: invalid version %q for reference %q", path, version, req.Mod.Path)
		}
		m.References = append(m.References, AssemblyReference{
			Name:    req.Mod.Path,
			Version: version,
		})
	}
	return m, nil
}

// ResolveReference finds, among candidates, the highest-version assembly
// satisfying ref (name match, version >= ref.Version when both are set).
func ResolveReference(ref AssemblyReference, candidates []*Manifest) (*Manifest, bool) {
	var matches []*Manifest
	for _, c := range candidates {
		if c.Name != ref.Name {
			continue
		}
		if v := manifestVersion(c); ref.Version != "" && v != "v0.0.0" && semver.Compare(v, ref.Version) < 0 {
			continue
		}
		matches = append(matches, c)
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Slice(matches, func(i, j int) bool {
		return semver.Compare(manifestVersion(matches[i]), manifestVersion(matches[j])) < 0
	})
	best := matches[len(matches)-1]
	return best, true
}

// manifestVersion reports the candidate's own declared version if its
// manifest self-references a version tag, defaulting to the lowest sentinel
// so unversioned candidates sort first.
func manifestVersion(m *Manifest) string {
	for _, ref := range m.References {
		if ref.Name == m.Name && ref.Version != "" {
			return ref.Version
		}
	}
	return "v0.0.0"
}
