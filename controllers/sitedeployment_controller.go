package controllers

import (
	"context"
	"errors"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	deployv1alpha1 "github.com/bayleafwalker/nodeselect/api/v1alpha1"
	"github.com/bayleafwalker/nodeselect/internal/buildlog"
	"github.com/bayleafwalker/nodeselect/internal/deploy"
	"github.com/bayleafwalker/nodeselect/internal/resolver"
)

// SiteDeploymentReconciler selects the node.js runtime for each SiteDeployment
// generation exactly once and publishes the build log as events and status.
//
// RBAC:
// +kubebuilder:rbac:groups=deploy.nodeselect.io,resources=sitedeployments,verbs=get;list;watch
// +kubebuilder:rbac:groups=deploy.nodeselect.io,resources=sitedeployments/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch;update
type SiteDeploymentReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Pipeline *deploy.Pipeline
	Recorder record.EventRecorder
}

func (r *SiteDeploymentReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	nodeselectControllerReconcileTotal.WithLabelValues("SiteDeployment").Inc()

	logger := log.FromContext(ctx).WithValues(
		"controller", "SiteDeployment",
		"namespace", req.Namespace,
		"deployment", req.Name,
	)

	var sd deployv1alpha1.SiteDeployment
	if err := r.Get(ctx, req.NamespacedName, &sd); err != nil {
		if client.IgnoreNotFound(err) == nil {
			return ctrl.Result{}, nil
		}
		nodeselectControllerReconcileErrorTotal.WithLabelValues("SiteDeployment").Inc()
		return ctrl.Result{}, err
	}

	if sd.Status.ObservedGeneration == sd.Generation && isTerminal(sd.Status.Phase) {
		return ctrl.Result{}, nil
	}

	logger = logger.WithValues("commit", sd.Spec.CommitID, "workingTree", sd.Spec.WorkingTree)
	ctx = log.IntoContext(ctx, logger)

	if r.Pipeline == nil {
		nodeselectControllerReconcileErrorTotal.WithLabelValues("SiteDeployment").Inc()
		return ctrl.Result{}, errors.New("sitedeployment reconciler has no pipeline")
	}

	sink := &eventSink{recorder: r.Recorder, obj: &sd}
	result, runErr := r.Pipeline.Run(ctx, deploy.Request{
		WorkingTree: sd.Spec.WorkingTree,
		TargetDir:   sd.Spec.TargetDir,
	}, sink)
	if runErr != nil {
		nodeselectControllerReconcileErrorTotal.WithLabelValues("SiteDeployment").Inc()
		logger.Error(runErr, "deployment pipeline failed")
	}

	applyResult(&sd, result, runErr)
	if err := r.Status().Update(ctx, &sd); err != nil {
		nodeselectControllerReconcileErrorTotal.WithLabelValues("SiteDeployment").Inc()
		logger.Error(err, "failed to update sitedeployment status")
		return ctrl.Result{}, err
	}

	deploymentsCompletedTotal.WithLabelValues(string(sd.Status.Phase)).Inc()
	logger.Info("deployment runtime selection complete",
		"phase", sd.Status.Phase,
		"selection", sd.Status.Selection,
		"nodeVersion", sd.Status.NodeVersion,
	)

	// A failed selection is final for this generation; the next push brings a new one.
	return ctrl.Result{}, nil
}

func (r *SiteDeploymentReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&deployv1alpha1.SiteDeployment{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Complete(r)
}

func isTerminal(phase deployv1alpha1.DeploymentPhase) bool {
	return phase == deployv1alpha1.DeploymentPhaseSucceeded || phase == deployv1alpha1.DeploymentPhaseFailed
}

func applyResult(sd *deployv1alpha1.SiteDeployment, result deploy.Result, runErr error) {
	sd.Status.ObservedGeneration = sd.Generation
	sd.Status.Trace = append([]string(nil), result.Trace...)
	sd.Status.NodeVersion = result.NodeVersion()
	sd.Status.RuntimeVersion = result.RuntimeVersion()

	if result.Status == buildlog.StatusSuccess {
		sd.Status.Phase = deployv1alpha1.DeploymentPhaseSucceeded
	} else {
		sd.Status.Phase = deployv1alpha1.DeploymentPhaseFailed
	}

	condition := metav1.Condition{Type: DeploymentConditionRuntimeSelected}
	switch res := result.Resolution.(type) {
	case resolver.Skipped:
		sd.Status.Selection = deployv1alpha1.SelectionSkipped
		condition.Status = metav1.ConditionFalse
		condition.Reason = "AutomaticSelectionDisabled"
		condition.Message = res.Reason
	case resolver.Selected:
		sd.Status.Selection = deployv1alpha1.SelectionSelected
		condition.Status = metav1.ConditionTrue
		condition.Reason = "VersionSelected"
		if res.Default {
			condition.Reason = "DefaultVersion"
		}
		condition.Message = res.Reason
	case resolver.Failed:
		sd.Status.Selection = deployv1alpha1.SelectionFailed
		condition.Status = metav1.ConditionFalse
		condition.Reason = "NoMatchingVersion"
		condition.Message = res.Reason
	default:
		sd.Status.Selection = deployv1alpha1.SelectionFailed
		condition.Status = metav1.ConditionFalse
		condition.Reason = "PipelineError"
		condition.Message = strings.Join(result.Trace, "\n")
	}
	if runErr != nil && result.Resolution != nil {
		// Resolution succeeded but launch configuration did not.
		condition.Status = metav1.ConditionFalse
		condition.Reason = "LaunchConfigurationFailed"
		condition.Message = runErr.Error()
	}

	setDeploymentCondition(sd, condition)
}

// eventSink publishes the build log as events on the SiteDeployment.
type eventSink struct {
	recorder record.EventRecorder
	obj      client.Object
}

func (s *eventSink) Append(line string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Event(s.obj, corev1.EventTypeNormal, "BuildLog", line)
}

func (s *eventSink) Complete(status buildlog.Status) {
	if s.recorder == nil {
		return
	}
	if status == buildlog.StatusFailed {
		s.recorder.Event(s.obj, corev1.EventTypeWarning, "DeploymentFailed", "Deployment Failed.")
		return
	}
	s.recorder.Event(s.obj, corev1.EventTypeNormal, "DeploymentSucceeded", "Deployment successful.")
}
