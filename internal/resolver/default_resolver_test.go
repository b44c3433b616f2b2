package resolver

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bayleafwalker/nodeselect/internal/appconfig"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
	"github.com/bayleafwalker/nodeselect/internal/semver"
)

func snapshot(t *testing.T, def string, available ...string) runtimes.Snapshot {
	t.Helper()
	versions := make([]semver.Version, 0, len(available))
	for _, raw := range available {
		versions = append(versions, semver.MustParseVersion(raw))
	}
	snap, err := runtimes.NewSnapshot(versions, def)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func manifest(node string) *appconfig.Manifest {
	return &appconfig.Manifest{EnginesNode: node}
}

func override(cmdline string) *appconfig.Override {
	return &appconfig.Override{NodeProcessCommandLine: &cmdline}
}

func mustSelected(t *testing.T, res Resolution) Selected {
	t.Helper()
	sel, ok := res.(Selected)
	if !ok {
		t.Fatalf("expected Selected, got %T (%s)", res, res.Message())
	}
	return sel
}

func TestDefaultResolver_ManifestMissingFallsBackToDefault(t *testing.T) {
	r := NewDefault()
	snap := snapshot(t, "0.6.20", "0.6.20", "0.8.2")

	overrides := map[string]*appconfig.Override{
		"no iisnode.yml":            nil,
		"iisnode.yml with foo: bar": {},
	}
	for name, o := range overrides {
		res, trace := r.Resolve(Input{Override: o, Runtimes: snap})

		sel := mustSelected(t, res)
		if sel.Version.String() != "0.6.20" || !sel.Default {
			t.Fatalf("%s: expected default 0.6.20, got %s (default=%v)", name, sel.Version, sel.Default)
		}
		if !strings.Contains(trace.String(), "The package.json file is not present") {
			t.Fatalf("%s: unexpected trace %q", name, trace)
		}
		if !strings.Contains(trace.String(), "default node.js version 0.6.20") {
			t.Fatalf("%s: expected trace to name the default version, got %q", name, trace)
		}
	}
}

func TestDefaultResolver_ManifestWithoutEnginesFallsBackToDefault(t *testing.T) {
	r := NewDefault()
	res, trace := r.Resolve(Input{
		Manifest: manifest(""),
		Runtimes: snapshot(t, "0.6.20", "0.6.20", "0.8.2"),
	})

	sel := mustSelected(t, res)
	if sel.Version.String() != "0.6.20" || !sel.Default {
		t.Fatalf("expected default 0.6.20, got %s", sel.Version)
	}
	if !strings.Contains(trace.String(), "The package.json file does not specify node.js engine version constraints") {
		t.Fatalf("unexpected trace %q", trace)
	}
}

func TestDefaultResolver_OverrideDominatesEverything(t *testing.T) {
	r := NewDefault()
	snap := snapshot(t, "0.6.20", "0.6.20", "0.8.2")

	manifests := map[string]*appconfig.Manifest{
		"no manifest":        nil,
		"no constraint":      manifest(""),
		"matched":            manifest("0.8.2"),
		"unmatched":          manifest("0.1.0"),
		"garbage":            manifest("not-a-range"),
		"empty command line": nil,
	}
	for name, m := range manifests {
		cmdline := "bar"
		if name == "empty command line" {
			cmdline = ""
		}
		res, trace := r.Resolve(Input{Manifest: m, Override: override(cmdline), Runtimes: snap})
		if _, ok := res.(Skipped); !ok {
			t.Fatalf("%s: expected Skipped, got %T", name, res)
		}
		if res.Outcome() != OutcomeSkipped {
			t.Fatalf("%s: expected outcome Skipped, got %s", name, res.Outcome())
		}
		if len(trace) != 1 || !strings.Contains(trace[0], "The iisnode.yml file explicitly sets nodeProcessCommandLine") {
			t.Fatalf("%s: unexpected trace %q", name, trace)
		}
	}
}

func TestDefaultResolver_SelectsHighestSatisfyingVersion(t *testing.T) {
	r := NewDefault()
	res, trace := r.Resolve(Input{
		Manifest: manifest("^0.8.0"),
		Runtimes: snapshot(t, "0.6.0", "0.6.0", "0.8.2", "0.9.0"),
	})

	sel := mustSelected(t, res)
	if sel.Version.String() != "0.8.2" {
		t.Fatalf("expected 0.8.2, got %s", sel.Version)
	}
	if sel.Default {
		t.Fatalf("expected a range match, not the default")
	}
	if !strings.Contains(trace.String(), "Selected node.js version 0.8.2") {
		t.Fatalf("unexpected trace %q", trace)
	}
}

func TestDefaultResolver_TieBreakIsNumericNotLexicographic(t *testing.T) {
	r := NewDefault()
	res, _ := r.Resolve(Input{
		Manifest: manifest(">=0.8"),
		Runtimes: snapshot(t, "0.8.2", "0.8.2", "0.8.10", "0.10.0", "0.9.12"),
	})

	if got := mustSelected(t, res).Version.String(); got != "0.10.0" {
		t.Fatalf("expected 0.10.0, got %s", got)
	}
}

func TestDefaultResolver_PinnedVersion(t *testing.T) {
	r := NewDefault()
	res, _ := r.Resolve(Input{
		Manifest: manifest("0.8.2"),
		Runtimes: snapshot(t, "0.6.20", "0.6.20", "0.8.2", "0.8.19"),
	})

	sel := mustSelected(t, res)
	if sel.Version.Runtime() != "v0.8.2" {
		t.Fatalf("expected v0.8.2, got %s", sel.Version.Runtime())
	}
}

func TestDefaultResolver_MismatchFails(t *testing.T) {
	r := NewDefault()
	res, trace := r.Resolve(Input{
		Manifest: manifest("0.1.0"),
		Runtimes: snapshot(t, "0.6.20", "0.6.20", "0.8.2"),
	})

	failed, ok := res.(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %T", res)
	}
	want := "No available node.js version matches application's version constraint of '0.1.0'"
	if !strings.Contains(failed.Reason, want) {
		t.Fatalf("expected reason to contain %q, got %q", want, failed.Reason)
	}
	if !strings.Contains(trace.String(), want) {
		t.Fatalf("expected trace to contain %q, got %q", want, trace)
	}
	if !strings.Contains(failed.Reason, "0.6.20, 0.8.2") {
		t.Fatalf("expected reason to list available versions, got %q", failed.Reason)
	}
}

func TestDefaultResolver_UnparseableConstraintFailsVerbatim(t *testing.T) {
	r := NewDefault()
	res, _ := r.Resolve(Input{
		Manifest: manifest(">=zero"),
		Runtimes: snapshot(t, "0.8.2", "0.8.2"),
	})

	if res.Outcome() != OutcomeFailed {
		t.Fatalf("expected Failed, got %s", res.Outcome())
	}
	if !strings.Contains(res.Message(), "'>=zero'") {
		t.Fatalf("expected constraint in message, got %q", res.Message())
	}
}

func TestDefaultResolver_EmptyRegistryMismatch(t *testing.T) {
	r := NewDefault()
	res, _ := r.Resolve(Input{
		Manifest: manifest("0.8.2"),
		Runtimes: runtimes.Snapshot{Default: semver.MustParseVersion("0.6.20")},
	})

	if res.Outcome() != OutcomeFailed {
		t.Fatalf("expected Failed, got %s", res.Outcome())
	}
	if !strings.Contains(res.Message(), "available versions: none") {
		t.Fatalf("unexpected message %q", res.Message())
	}
}

func TestDefaultResolver_ZeroInputIsTotal(t *testing.T) {
	r := NewDefault()
	res, trace := r.Resolve(Input{})

	if res == nil || len(trace) != 1 {
		t.Fatalf("expected a resolution with one trace line, got %v %q", res, trace)
	}
	if res.Outcome() != OutcomeSelected {
		t.Fatalf("expected Selected for missing manifest, got %s", res.Outcome())
	}
}

func TestDefaultResolver_Idempotent(t *testing.T) {
	r := NewDefault()
	in := Input{
		Manifest: manifest("0.8.x"),
		Runtimes: snapshot(t, "0.6.20", "0.6.20", "0.8.2", "0.8.19"),
	}

	res1, trace1 := r.Resolve(in)
	res2, trace2 := r.Resolve(in)

	if !reflect.DeepEqual(trace1, trace2) {
		t.Fatalf("expected identical traces, got %q and %q", trace1, trace2)
	}
	s1, s2 := mustSelected(t, res1), mustSelected(t, res2)
	if semver.Compare(s1.Version, s2.Version) != 0 || s1.Reason != s2.Reason || s1.Default != s2.Default {
		t.Fatalf("expected identical resolutions, got %+v and %+v", s1, s2)
	}
}
