package controllers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/envtest"

	deployv1alpha1 "github.com/bayleafwalker/nodeselect/api/v1alpha1"
)

func TestIntegration_SiteDeployment_SelectsVersionAndWritesStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in -short")
	}
	if os.Getenv("NODESELECT_INTEGRATION") != "1" {
		t.Skip("set NODESELECT_INTEGRATION=1 to enable envtest integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	testEnv := &envtest.Environment{
		CRDDirectoryPaths:     []string{filepath.Join("..", "k8s", "crds")},
		ErrorIfCRDPathMissing: true,
	}

	cfg, err := testEnv.Start()
	if err != nil {
		t.Fatalf("start envtest (set KUBEBUILDER_ASSETS): %v", err)
	}
	defer func() {
		_ = testEnv.Stop()
	}()

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme(client-go): %v", err)
	}
	if err := deployv1alpha1.AddToScheme(scheme); err != nil {
		t.Fatalf("AddToScheme(deploy): %v", err)
	}

	k8sClient, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "nodeselect-integration"}}
	if err := k8sClient.Create(ctx, ns); err != nil {
		t.Fatalf("create namespace: %v", err)
	}

	tree := workingTree(t, map[string]string{
		"package.json": `{"name":"app","engines":{"node":"~0.8"}}`,
		"server.js":    "// app",
	})

	sd := &deployv1alpha1.SiteDeployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "deploy.nodeselect.io/v1alpha1", Kind: "SiteDeployment"},
		ObjectMeta: metav1.ObjectMeta{Name: "site-1", Namespace: ns.Name},
		Spec:       deployv1alpha1.SiteDeploymentSpec{WorkingTree: tree, CommitID: "abc123"},
	}
	if err := k8sClient.Create(ctx, sd); err != nil {
		t.Fatalf("create sitedeployment: %v", err)
	}

	r := &SiteDeploymentReconciler{
		Client:   k8sClient,
		Scheme:   scheme,
		Pipeline: testPipeline(t),
		Recorder: record.NewFakeRecorder(16),
	}
	key := types.NamespacedName{Namespace: ns.Name, Name: sd.Name}
	if _, err := r.Reconcile(ctx, ctrl.Request{NamespacedName: key}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if err := wait.PollUntilContextTimeout(ctx, 100*time.Millisecond, 10*time.Second, true, func(ctx context.Context) (bool, error) {
		var got deployv1alpha1.SiteDeployment
		if err := k8sClient.Get(ctx, key, &got); err != nil {
			return false, client.IgnoreNotFound(err)
		}
		if got.Status.Phase != deployv1alpha1.DeploymentPhaseSucceeded {
			return false, nil
		}
		if got.Status.RuntimeVersion != "v0.8.2" {
			return false, nil
		}
		if got.Status.ObservedGeneration != got.Generation {
			return false, nil
		}
		return len(got.Status.Trace) == 1 && strings.HasPrefix(got.Status.Trace[0], "Selected node.js version 0.8.2"), nil
	}); err != nil {
		t.Fatalf("timed out waiting for Succeeded status: %v", err)
	}
}
