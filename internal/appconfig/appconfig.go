// Package appconfig reads the deployment-time configuration files that steer
// node.js runtime selection out of a checked-out working tree.
//
// Absence of a file is a valid state, distinct from a present file with no
// recognised fields. Malformed content degrades to "no recognised fields".
package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ManifestFile is the application manifest carrying engines.node.
	ManifestFile = "package.json"
	// OverrideFile is the iisnode host configuration that can take over process startup.
	OverrideFile = "iisnode.yml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Manifest is the part of package.json that runtime selection cares about.
type Manifest struct {
	// EnginesNode is the raw engines.node range. Empty when the manifest has none.
	EnginesNode string
}

// HasNodeConstraint reports whether the manifest declares an engines.node range.
func (m *Manifest) HasNodeConstraint() bool {
	return m != nil && strings.TrimSpace(m.EnginesNode) != ""
}

// Override is the part of iisnode.yml that runtime selection cares about.
type Override struct {
	// NodeProcessCommandLine is non-nil iff the key exists, whatever its value.
	NodeProcessCommandLine *string
}

// SetsNodeProcessCommandLine reports whether the override file takes over process startup.
func (o *Override) SetsNodeProcessCommandLine() bool {
	return o != nil && o.NodeProcessCommandLine != nil
}

// Snapshot is what Read found in a working tree. A nil field means the file
// does not exist.
type Snapshot struct {
	Manifest *Manifest
	Override *Override
}

// Read loads package.json and iisnode.yml from dir.
//
// Missing files are not errors. Other read failures are returned.
func Read(dir string) (Snapshot, error) {
	manifest, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Snapshot{}, err
	}
	override, err := ReadOverride(filepath.Join(dir, OverrideFile))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Manifest: manifest, Override: override}, nil
}

// ReadManifest returns nil when path does not exist.
func ReadManifest(path string) (*Manifest, error) {
	raw, ok, err := readOptional(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}
	if !ok {
		return nil, nil
	}
	m := ParseManifest(raw)
	return &m, nil
}

// ReadOverride returns nil when path does not exist.
func ReadOverride(path string) (*Override, error) {
	raw, ok, err := readOptional(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", OverrideFile, err)
	}
	if !ok {
		return nil, nil
	}
	o := ParseOverride(raw)
	return &o, nil
}

func readOptional(path string) ([]byte, bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bytes.TrimPrefix(raw, utf8BOM), true, nil
}
