package resolver

import (
	"fmt"
	"strings"

	"github.com/bayleafwalker/nodeselect/internal/semver"
)

const (
	MsgOverride          = "The iisnode.yml file explicitly sets nodeProcessCommandLine. Automatic node.js version selection is turned off."
	MsgManifestMissing   = "The package.json file is not present."
	MsgConstraintMissing = "The package.json file does not specify node.js engine version constraints."

	msgDefaultFmt  = "The node.js application will run with the default node.js version %s."
	msgSelectedFmt = "Selected node.js version %s. Use package.json file to choose a different version."
	msgMismatchFmt = "No available node.js version matches application's version constraint of '%s'. Use package.json to choose one of the available versions: %s."
)

// DefaultResolver applies the runtime selection policy as a priority chain:
// the first check that fires decides the outcome and later checks are not
// evaluated.
type DefaultResolver struct{}

func NewDefault() *DefaultResolver {
	return &DefaultResolver{}
}

type check struct {
	name  string
	apply func(in Input) (Resolution, bool)
}

// policy is evaluated top to bottom. Order is the precedence.
var policy = []check{
	{name: "override", apply: checkOverride},
	{name: "manifest-missing", apply: checkManifestMissing},
	{name: "constraint-missing", apply: checkConstraintMissing},
	{name: "constraint-matched", apply: checkConstraintMatched},
	{name: "constraint-unmatched", apply: checkConstraintUnmatched},
}

func (r *DefaultResolver) Resolve(in Input) (Resolution, Trace) {
	for _, c := range policy {
		if res, ok := c.apply(in); ok {
			return res, Trace{res.Message()}
		}
	}
	// Unreachable: checkConstraintUnmatched fires for anything the earlier checks let through.
	res := Failed{Reason: fmt.Sprintf(msgMismatchFmt, "", availableList(in))}
	return res, Trace{res.Message()}
}

func checkOverride(in Input) (Resolution, bool) {
	if !in.Override.SetsNodeProcessCommandLine() {
		return nil, false
	}
	return Skipped{Reason: MsgOverride}, true
}

func checkManifestMissing(in Input) (Resolution, bool) {
	if in.Manifest != nil {
		return nil, false
	}
	return selectDefault(in, MsgManifestMissing), true
}

func checkConstraintMissing(in Input) (Resolution, bool) {
	if in.Manifest.HasNodeConstraint() {
		return nil, false
	}
	return selectDefault(in, MsgConstraintMissing), true
}

func checkConstraintMatched(in Input) (Resolution, bool) {
	constraint, err := semver.ParseConstraint(in.Manifest.EnginesNode)
	if err != nil {
		return nil, false
	}
	best, ok := semver.MaxSatisfying(constraint, in.Runtimes.Available)
	if !ok {
		return nil, false
	}
	return Selected{
		Version: best,
		Reason:  fmt.Sprintf(msgSelectedFmt, best),
	}, true
}

func checkConstraintUnmatched(in Input) (Resolution, bool) {
	return Failed{Reason: fmt.Sprintf(msgMismatchFmt, in.Manifest.EnginesNode, availableList(in))}, true
}

func selectDefault(in Input, why string) Selected {
	return Selected{
		Version: in.Runtimes.Default,
		Default: true,
		Reason:  why + " " + fmt.Sprintf(msgDefaultFmt, in.Runtimes.Default),
	}
}

func availableList(in Input) string {
	if len(in.Runtimes.Available) == 0 {
		return "none"
	}
	names := make([]string, 0, len(in.Runtimes.Available))
	for _, v := range in.Runtimes.Available {
		names = append(names, v.String())
	}
	return strings.Join(names, ", ")
}
