package semver

import (
	"fmt"
	"sort"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// Constraint is a semantic version range as written in a package.json
// engines field.
//
// Examples:
// - "0.8.2"
// - ">=0.8.0 <0.10.0"
// - "^0.8.0"
// - "~0.8"
// - "0.8.x || 0.10.x"
type Constraint struct {
	raw string
	c   *mm.Constraints
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses an npm-style range. An empty range matches any
// released version, like npm treats it.
func ParseConstraint(raw string) (Constraint, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" || normalized == "latest" {
		normalized = "*"
	}
	c, err := mm.NewConstraint(normalized)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{raw: raw, c: c}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the canonical "major.minor.patch[-pre][+meta]" form.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Original returns the version as it was written before parsing.
func (v Version) Original() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

// Runtime returns the version the way node reports it in process.version.
func (v Version) Runtime() string {
	if v.v == nil {
		return ""
	}
	return "v" + v.v.String()
}

func (c Constraint) String() string {
	return c.raw
}

func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

// Max returns the highest of candidates.
func Max(candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if candidate.v == nil {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

// SortUnique returns a copy of versions in ascending precedence order with
// duplicates (by precedence) removed. The first spelling of a duplicate is kept.
func SortUnique(versions []Version) []Version {
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		if v.v != nil {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i], out[j]) < 0
	})

	unique := out[:0]
	for i, v := range out {
		if i > 0 && Compare(v, unique[len(unique)-1]) == 0 {
			continue
		}
		unique = append(unique, v)
	}
	return unique
}
