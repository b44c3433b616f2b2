package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bayleafwalker/nodeselect/internal/rpc"
)

func main() {
	var target string
	var workingTree string
	var targetDir string
	var list bool
	flag.StringVar(&target, "target", "127.0.0.1:50051", "gRPC server address")
	flag.StringVar(&workingTree, "dir", "", "working tree to resolve")
	flag.StringVar(&targetDir, "deploy-to", "", "directory, relative to the server's -target-root, that receives iisnode.yml for the selected runtime")
	flag.BoolVar(&list, "list", false, "list installed runtimes instead of resolving")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", target, err)
		os.Exit(1)
	}
	defer conn.Close()

	c := rpc.NewClient(conn)

	if list {
		runtimes, err := c.ListRuntimes(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ListRuntimes error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("default: %s\navailable: %s\n", runtimes.Default, strings.Join(runtimes.Available, ", "))
		return
	}

	reply, err := c.Resolve(ctx, rpc.ResolveRequest{WorkingTree: workingTree, TargetDir: targetDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve error: %v\n", err)
		os.Exit(1)
	}
	for _, line := range reply.Trace {
		fmt.Println(line)
	}
	fmt.Printf("status=%s selection=%s node=%s\n", reply.Status, reply.Selection, reply.RuntimeVersion)
	if reply.Status == "Failed" {
		os.Exit(1)
	}
}
