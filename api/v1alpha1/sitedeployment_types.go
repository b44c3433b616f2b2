package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type DeploymentPhase string

// SelectionOutcome mirrors the resolver's decision for the deployment.
type SelectionOutcome string

const (
	DeploymentPhasePending   DeploymentPhase = "Pending"
	DeploymentPhaseSucceeded DeploymentPhase = "Succeeded"
	DeploymentPhaseFailed    DeploymentPhase = "Failed"

	SelectionSkipped  SelectionOutcome = "Skipped"
	SelectionSelected SelectionOutcome = "Selected"
	SelectionFailed   SelectionOutcome = "Failed"
)

// SiteDeployment is one git-push deployment of a node.js site whose runtime
// version must be selected before the site starts.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=sd
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Selection",type=string,JSONPath=`.status.selection`
// +kubebuilder:printcolumn:name="Node",type=string,JSONPath=`.status.runtimeVersion`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type SiteDeployment struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   SiteDeploymentSpec   `json:"spec"`
	Status SiteDeploymentStatus `json:"status,omitempty"`
}

type SiteDeploymentSpec struct {
	// WorkingTree is the path of the checked-out repository, as seen by the controller.
	WorkingTree string `json:"workingTree"`

	// TargetDir receives the launch configuration for the selected runtime.
	// +optional
	TargetDir string `json:"targetDir,omitempty"`

	// CommitID is the pushed commit being deployed.
	// +optional
	CommitID string `json:"commitId,omitempty"`
}

type SiteDeploymentStatus struct {
	ObservedGeneration int64            `json:"observedGeneration,omitempty"`
	Phase              DeploymentPhase  `json:"phase,omitempty"`
	Selection          SelectionOutcome `json:"selection,omitempty"`

	// NodeVersion is the selected runtime, e.g. "0.8.2".
	NodeVersion string `json:"nodeVersion,omitempty"`
	// RuntimeVersion is what the application sees in process.version, e.g. "v0.8.2".
	RuntimeVersion string `json:"runtimeVersion,omitempty"`

	// Trace is the build log explaining the selection, in order.
	Trace []string `json:"trace,omitempty"`

	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
type SiteDeploymentList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []SiteDeployment `json:"items"`
}

func init() {
	SchemeBuilder.Register(&SiteDeployment{}, &SiteDeploymentList{})
}
