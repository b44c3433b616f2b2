package resolver

import (
	"strings"

	"github.com/bayleafwalker/nodeselect/internal/appconfig"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
	"github.com/bayleafwalker/nodeselect/internal/semver"
)

// Input is everything one resolution looks at. Nil Manifest/Override mean the
// file does not exist in the working tree.
type Input struct {
	Manifest *appconfig.Manifest
	Override *appconfig.Override
	Runtimes runtimes.Snapshot
}

// Outcome names the Resolution variant.
type Outcome string

const (
	OutcomeSkipped  Outcome = "Skipped"
	OutcomeSelected Outcome = "Selected"
	OutcomeFailed   Outcome = "Failed"
)

// Resolution is the terminal decision for one deployment attempt.
//
// It is one of Skipped, Selected or Failed.
type Resolution interface {
	Outcome() Outcome
	// Message is the diagnostic line of the check that decided the outcome.
	Message() string

	isResolution()
}

// Skipped means automatic version selection does not apply.
type Skipped struct {
	Reason string
}

// Selected carries the runtime the application will run under.
type Selected struct {
	Version semver.Version
	// Default is true when Version is the host default rather than a range match.
	Default bool
	Reason  string
}

// Failed means no installed runtime can serve the application. The deployment must abort.
type Failed struct {
	Reason string
}

func (Skipped) Outcome() Outcome  { return OutcomeSkipped }
func (Selected) Outcome() Outcome { return OutcomeSelected }
func (Failed) Outcome() Outcome   { return OutcomeFailed }

func (s Skipped) Message() string  { return s.Reason }
func (s Selected) Message() string { return s.Reason }
func (f Failed) Message() string   { return f.Reason }

func (Skipped) isResolution()  {}
func (Selected) isResolution() {}
func (Failed) isResolution()   {}

// Trace is the ordered diagnostic output of one resolution, destined for the build log.
type Trace []string

func (t Trace) String() string {
	return strings.Join(t, "\n")
}
