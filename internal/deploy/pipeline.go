// Package deploy runs node.js runtime selection as one step of a deployment
// and maps its decision onto the deployment outcome.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/nodeselect/internal/appconfig"
	"github.com/bayleafwalker/nodeselect/internal/buildlog"
	"github.com/bayleafwalker/nodeselect/internal/resolver"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
)

// Request identifies one deployment attempt.
type Request struct {
	// WorkingTree is the checked-out repository.
	WorkingTree string
	// TargetDir receives launch configuration. Empty skips the hand-off.
	// It must not be the working tree: an iisnode.yml written there would
	// turn automatic selection off for every later deployment.
	TargetDir string
}

// Result is what the pipeline reports back for one deployment attempt.
type Result struct {
	Status buildlog.Status
	// Resolution is nil when the pipeline failed before the resolver ran.
	Resolution resolver.Resolution
	Trace      resolver.Trace
}

// NodeVersion is the selected runtime version, or "" when none was selected.
func (r Result) NodeVersion() string {
	if sel, ok := r.Resolution.(resolver.Selected); ok {
		return sel.Version.String()
	}
	return ""
}

// RuntimeVersion is the version string the running application observes (process.version).
func (r Result) RuntimeVersion() string {
	if sel, ok := r.Resolution.(resolver.Selected); ok {
		return sel.Version.Runtime()
	}
	return ""
}

// Pipeline wires the config reader, runtime registry and resolver together.
type Pipeline struct {
	Registry runtimes.Registry
	// Resolver defaults to resolver.NewDefault().
	Resolver resolver.Resolver
	// Launch is optional.
	Launch LaunchConfigurer
}

// Run resolves the runtime for req, writes every diagnostic line to sink and
// completes the sink with the deployment status.
//
// A Failed resolution is reported through Result.Status, not as an error.
// Errors are reserved for infrastructure problems (unreadable files,
// registry or launch configuration failures); they also fail the deployment.
func (p *Pipeline) Run(ctx context.Context, req Request, sink buildlog.Sink) (Result, error) {
	logger := log.FromContext(ctx).WithValues("workingTree", req.WorkingTree)

	if p.Registry == nil {
		return p.abort(sink, errors.New("deploy: no runtime registry configured"))
	}
	if req.TargetDir != "" && filepath.Clean(req.TargetDir) == filepath.Clean(req.WorkingTree) {
		return p.abort(sink, errors.New("deploy: target directory must differ from the working tree"))
	}

	start := time.Now()

	cfg, err := appconfig.Read(req.WorkingTree)
	if err != nil {
		logger.Error(err, "failed to read deployment configuration")
		return p.abort(sink, err)
	}

	snap, err := p.Registry.Snapshot(ctx)
	if err != nil {
		logger.Error(err, "failed to enumerate installed node.js runtimes")
		return p.abort(sink, fmt.Errorf("enumerate node.js runtimes: %w", err))
	}

	res, trace := p.resolver().Resolve(resolver.Input{
		Manifest: cfg.Manifest,
		Override: cfg.Override,
		Runtimes: snap,
	})
	observeResolution(res.Outcome(), time.Since(start))

	for _, line := range trace {
		sink.Append(line)
	}

	result := Result{Status: statusFor(res), Resolution: res, Trace: trace}
	logger.Info("resolved node.js runtime", "outcome", res.Outcome(), "version", result.NodeVersion())

	// The host default needs no launch override; it is what runs without one.
	if sel, ok := res.(resolver.Selected); ok && !sel.Default && p.Launch != nil && req.TargetDir != "" {
		if err := p.Launch.Configure(ctx, req.TargetDir, sel); err != nil {
			logger.Error(err, "failed to hand selected runtime to launch configuration", "targetDir", req.TargetDir)
			line := fmt.Sprintf("Failed to configure node.js %s for the application: %v", sel.Version, err)
			sink.Append(line)
			sink.Complete(buildlog.StatusFailed)
			result.Status = buildlog.StatusFailed
			result.Trace = append(result.Trace, line)
			return result, err
		}
	}

	sink.Complete(result.Status)
	return result, nil
}

func (p *Pipeline) resolver() resolver.Resolver {
	if p.Resolver == nil {
		return resolver.NewDefault()
	}
	return p.Resolver
}

func (p *Pipeline) abort(sink buildlog.Sink, err error) (Result, error) {
	line := fmt.Sprintf("Unable to select a node.js version: %v", err)
	sink.Append(line)
	sink.Complete(buildlog.StatusFailed)
	return Result{Status: buildlog.StatusFailed, Trace: resolver.Trace{line}}, err
}

// statusFor maps a resolution onto the deployment outcome. Only Failed aborts.
func statusFor(res resolver.Resolution) buildlog.Status {
	if res.Outcome() == resolver.OutcomeFailed {
		return buildlog.StatusFailed
	}
	return buildlog.StatusSuccess
}
