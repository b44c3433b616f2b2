package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	deployv1alpha1 "github.com/bayleafwalker/nodeselect/api/v1alpha1"
	"github.com/bayleafwalker/nodeselect/internal/buildlog"
)

// submitDeployment hands the working tree to the in-cluster controller and
// prints the trace it records once the deployment reaches a terminal phase.
func submitDeployment(ctx context.Context, kubeconfig, namespace, name, dir, target string) (buildlog.Status, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return buildlog.StatusFailed, fmt.Errorf("build kubeconfig: %w", err)
	}
	k8sClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		return buildlog.StatusFailed, fmt.Errorf("create client: %w", err)
	}

	tree, err := filepath.Abs(dir)
	if err != nil {
		return buildlog.StatusFailed, err
	}

	sd := &deployv1alpha1.SiteDeployment{
		ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name},
		Spec:       deployv1alpha1.SiteDeploymentSpec{WorkingTree: tree, TargetDir: target},
	}
	if name == "" {
		sd.GenerateName = "selectnode-"
	}
	if err := k8sClient.Create(ctx, sd); err != nil {
		return buildlog.StatusFailed, fmt.Errorf("create sitedeployment: %w", err)
	}
	fmt.Printf("Created SiteDeployment %s/%s\n", sd.Namespace, sd.Name)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var got deployv1alpha1.SiteDeployment
	if err := wait.PollUntilContextCancel(ctx, time.Second, true, func(ctx context.Context) (bool, error) {
		if err := k8sClient.Get(ctx, client.ObjectKeyFromObject(sd), &got); err != nil {
			return false, client.IgnoreNotFound(err)
		}
		return got.Status.ObservedGeneration == got.Generation &&
			(got.Status.Phase == deployv1alpha1.DeploymentPhaseSucceeded || got.Status.Phase == deployv1alpha1.DeploymentPhaseFailed), nil
	}); err != nil {
		return buildlog.StatusFailed, fmt.Errorf("wait for sitedeployment %s: %w", sd.Name, err)
	}

	status := buildlog.StatusFailed
	if got.Status.Phase == deployv1alpha1.DeploymentPhaseSucceeded {
		status = buildlog.StatusSuccess
	}

	out := buildlog.NewWriter(os.Stdout)
	for _, line := range got.Status.Trace {
		out.Append(line)
	}
	out.Complete(status)
	return status, out.Err()
}
