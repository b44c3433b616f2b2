package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/util/homedir"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	deployv1alpha1 "github.com/bayleafwalker/nodeselect/api/v1alpha1"
	"github.com/bayleafwalker/nodeselect/internal/buildlog"
	"github.com/bayleafwalker/nodeselect/internal/deploy"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
)

var (
	scheme = runtime.NewScheme()
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(deployv1alpha1.AddToScheme(scheme))
}

func main() {
	var dir string
	var target string
	var rt runtimes.Config

	var submit bool
	var kubeconfig string
	var namespace string
	var name string

	flag.StringVar(&dir, "dir", ".", "Working tree of the application to deploy.")
	flag.StringVar(&target, "target", "", "Directory that receives iisnode.yml for the selected runtime. Requires -runtimes-dir.")
	rt.BindFlags(flag.CommandLine)

	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	} else {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	flag.BoolVar(&submit, "submit", false, "Create a SiteDeployment in the cluster and wait for its result instead of resolving locally.")
	flag.StringVar(&kubeconfig, "kubeconfig", kubeconfig, "absolute path to the kubeconfig file")
	flag.StringVar(&namespace, "namespace", "default", "Namespace for -submit.")
	flag.StringVar(&name, "name", "", "SiteDeployment name for -submit. Defaults to a generated name.")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	logger := zap.New(zap.UseFlagOptions(&opts))
	ctrl.SetLogger(logger)
	ctx := log.IntoContext(context.Background(), logger.WithName("selectnode"))

	var status buildlog.Status
	var err error
	if submit {
		status, err = submitDeployment(ctx, kubeconfig, namespace, name, dir, target)
	} else {
		status, err = resolveLocally(ctx, rt, dir, target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "selectnode: %v\n", err)
	}
	if status != buildlog.StatusSuccess {
		os.Exit(1)
	}
}

func resolveLocally(ctx context.Context, rt runtimes.Config, dir, target string) (buildlog.Status, error) {
	reg, err := rt.Registry()
	if err != nil {
		return buildlog.StatusFailed, err
	}

	out := buildlog.NewWriter(os.Stdout)
	sink := buildlog.Multi{out, buildlog.Logger{Log: log.FromContext(ctx).V(1)}}

	result, err := deploy.NewPipeline(reg).Run(ctx, deploy.Request{WorkingTree: dir, TargetDir: target}, sink)
	if werr := out.Err(); werr != nil && err == nil {
		err = werr
	}
	return result.Status, err
}
