// Package runtimes enumerates the node.js runtimes installed on a deployment host.
package runtimes

import (
	"context"
	"fmt"
	"strings"

	"github.com/bayleafwalker/nodeselect/internal/semver"
)

// Snapshot is an immutable view of the installed runtimes for one resolution.
type Snapshot struct {
	// Available is sorted ascending with duplicates removed.
	Available []semver.Version
	// Default is used whenever automatic selection does not apply.
	Default semver.Version
}

// Contains reports whether v is installed.
func (s Snapshot) Contains(v semver.Version) bool {
	for _, candidate := range s.Available {
		if semver.Compare(candidate, v) == 0 {
			return true
		}
	}
	return false
}

// Registry provides the host's installed runtimes.
type Registry interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// NewSnapshot builds a Snapshot from parsed versions.
//
// When def is empty the highest available version becomes the default.
func NewSnapshot(available []semver.Version, def string) (Snapshot, error) {
	sorted := semver.SortUnique(available)

	var defVersion semver.Version
	if strings.TrimSpace(def) == "" {
		highest, ok := semver.Max(sorted)
		if !ok {
			return Snapshot{}, ErrNoRuntimes
		}
		defVersion = highest
	} else {
		v, err := semver.ParseVersion(def)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidDefault, err)
		}
		defVersion = v
	}

	return Snapshot{Available: sorted, Default: defVersion}, nil
}

// Static is a Registry over a fixed, host-supplied list.
type Static struct {
	snapshot Snapshot
}

// NewStatic parses available and def once. Entries that are not versions are rejected.
func NewStatic(available []string, def string) (*Static, error) {
	parsed := make([]semver.Version, 0, len(available))
	for _, raw := range available {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, err := semver.ParseVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("runtimes: available version: %w", err)
		}
		parsed = append(parsed, v)
	}

	snap, err := NewSnapshot(parsed, def)
	if err != nil {
		return nil, err
	}
	return &Static{snapshot: snap}, nil
}

func (s *Static) Snapshot(_ context.Context) (Snapshot, error) {
	out := s.snapshot
	out.Available = append([]semver.Version(nil), s.snapshot.Available...)
	return out, nil
}

// CheckDefaultInstalled takes one snapshot of reg and reports a default that
// is not among the installed runtimes. Binaries call it at startup so a host
// misconfiguration surfaces before the first deployment.
func CheckDefaultInstalled(ctx context.Context, reg Registry) error {
	snap, err := reg.Snapshot(ctx)
	if err != nil {
		return err
	}
	if !snap.Contains(snap.Default) {
		return fmt.Errorf("%w: %s is not installed", ErrDefaultNotInstalled, snap.Default)
	}
	return nil
}
