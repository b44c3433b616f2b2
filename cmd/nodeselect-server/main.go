package main

import (
	"context"
	"flag"
	"net"
	"os"

	"google.golang.org/grpc"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/bayleafwalker/nodeselect/internal/deploy"
	"github.com/bayleafwalker/nodeselect/internal/rpc"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
)

func main() {
	var listenAddr string
	var targetRoot string
	var rt runtimes.Config

	flag.StringVar(&listenAddr, "listen", ":50051", "address to listen on")
	flag.StringVar(&targetRoot, "target-root", "", "directory that request targetDir values are confined to; empty rejects targetDir")
	rt.BindFlags(flag.CommandLine)

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	setupLog := ctrl.Log.WithName("setup")

	reg, err := rt.Registry()
	if err != nil {
		setupLog.Error(err, "invalid runtime configuration")
		os.Exit(1)
	}
	if err := runtimes.CheckDefaultInstalled(context.Background(), reg); err != nil {
		setupLog.Error(err, "invalid runtime configuration")
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		setupLog.Error(err, "unable to listen", "address", listenAddr)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	srv := rpc.NewServer(deploy.NewPipeline(reg), ctrl.Log.WithName("rpc"))
	srv.TargetRoot = targetRoot
	rpc.RegisterRuntimeSelectorServer(grpcServer, srv)

	setupLog.Info("serving runtime selector", "address", lis.Addr().String())
	if err := grpcServer.Serve(lis); err != nil {
		setupLog.Error(err, "grpc serve failed")
		os.Exit(1)
	}
}
