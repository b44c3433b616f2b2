package runtimes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/nodeselect/internal/semver"
)

// binaryNames are probed in order inside a runtime's install directory.
var binaryNames = []string{
	"node.exe",
	"node",
	filepath.Join("bin", "node"),
}

// Dir is a Registry backed by an install root laid out as
// <root>/<version>/node[.exe] or <root>/<version>/bin/node.
//
// The root is rescanned on every Snapshot so runtimes installed out of band
// are picked up by the next deployment.
type Dir struct {
	Root    string
	Default string
}

func NewDir(root, def string) *Dir {
	return &Dir{Root: root, Default: def}
}

func (d *Dir) Snapshot(ctx context.Context) (Snapshot, error) {
	installed, err := d.scan(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	versions := make([]semver.Version, 0, len(installed))
	for _, inst := range installed {
		versions = append(versions, inst.version)
	}
	return NewSnapshot(versions, d.Default)
}

// BinaryPath returns the node binary of the installed runtime matching v.
func (d *Dir) BinaryPath(ctx context.Context, v semver.Version) (string, error) {
	installed, err := d.scan(ctx)
	if err != nil {
		return "", err
	}
	for _, inst := range installed {
		if semver.Compare(inst.version, v) == 0 {
			return inst.binary, nil
		}
	}
	return "", fmt.Errorf("runtimes: node.js %s is not installed under %s", v, d.Root)
}

type installation struct {
	version semver.Version
	binary  string
}

func (d *Dir) scan(ctx context.Context) ([]installation, error) {
	logger := log.FromContext(ctx).WithValues("root", d.Root)

	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("runtimes: read install root: %w", err)
	}

	out := make([]installation, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := semver.ParseVersion(entry.Name())
		if err != nil {
			logger.V(1).Info("skipping non-version directory", "name", entry.Name())
			continue
		}
		binary, ok := findBinary(filepath.Join(d.Root, entry.Name()))
		if !ok {
			logger.V(1).Info("skipping runtime directory without a node binary", "name", entry.Name())
			continue
		}
		out = append(out, installation{version: v, binary: binary})
	}
	return out, nil
}

func findBinary(dir string) (string, bool) {
	for _, name := range binaryNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
