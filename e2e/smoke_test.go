package e2e

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const available = "0.6.20,0.8.2"

func TestE2ESmoke_SelectNodeScenarios(t *testing.T) {
	if os.Getenv("NODESELECT_E2E") == "" {
		t.Skip("set NODESELECT_E2E=1 to build and run the selectnode binary")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repoRoot := findRepoRoot(t)
	bin := buildBinary(t, ctx, repoRoot, "selectnode")

	cases := []struct {
		name     string
		files    map[string]string
		wantFail bool
		want     []string
	}{
		{
			name:  "no package.json",
			files: map[string]string{"server.js": "// app"},
			want: []string{
				"The package.json file is not present.",
				"The node.js application will run with the default node.js version 0.6.20.",
				"Deployment successful.",
			},
		},
		{
			name:  "package.json without engines",
			files: map[string]string{"server.js": "// app", "package.json": "{}"},
			want: []string{
				"The package.json file does not specify node.js engine version constraints.",
				"Deployment successful.",
			},
		},
		{
			name:  "iisnode.yml without nodeProcessCommandLine",
			files: map[string]string{"server.js": "// app", "iisnode.yml": "foo: bar"},
			want:  []string{"The package.json file is not present.", "Deployment successful."},
		},
		{
			name: "nodeProcessCommandLine override",
			files: map[string]string{
				"server.js":    "// app",
				"iisnode.yml":  "nodeProcessCommandLine: bar",
				"package.json": `{"engines":{"node":"0.1.0"}}`,
			},
			want: []string{
				"The iisnode.yml file explicitly sets nodeProcessCommandLine. Automatic node.js version selection is turned off.",
				"Deployment successful.",
			},
		},
		{
			name:     "no matching version",
			files:    map[string]string{"server.js": "// app", "package.json": `{"engines":{"node":"0.1.0"}}`},
			wantFail: true,
			want: []string{
				"No available node.js version matches application's version constraint of '0.1.0'. Use package.json to choose one of the available versions: 0.6.20, 0.8.2.",
				"Deployment Failed.",
			},
		},
		{
			name:  "pinned version",
			files: map[string]string{"server.js": "// app", "package.json": `{"engines":{"node":"0.8.2"}}`},
			want: []string{
				"Selected node.js version 0.8.2. Use package.json file to choose a different version.",
				"Deployment successful.",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := writeTree(t, tc.files)
			out, err := runOut(ctx, repoRoot, nil, bin, "-dir", tree, "-available", available, "-default", "0.6.20")
			if tc.wantFail && err == nil {
				t.Fatalf("expected non-zero exit, got success:\n%s", out)
			}
			if !tc.wantFail && err != nil {
				t.Fatalf("selectnode failed: %v\n%s", err, out)
			}
			for _, line := range tc.want {
				if !strings.Contains(out, line) {
					t.Fatalf("output missing %q:\n%s", line, out)
				}
			}
		})
	}
}

func TestE2ESmoke_RuntimeSelectorServer(t *testing.T) {
	if os.Getenv("NODESELECT_E2E") == "" {
		t.Skip("set NODESELECT_E2E=1 to build and run the gRPC binaries")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repoRoot := findRepoRoot(t)
	serverBin := buildBinary(t, ctx, repoRoot, "nodeselect-server")
	clientBin := buildBinary(t, ctx, repoRoot, "nodeselect-client")

	addr := fmt.Sprintf("127.0.0.1:%d", pickFreePort(t))
	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverCmd := exec.CommandContext(serverCtx, serverBin, "-listen", addr, "-available", available, "-default", "0.6.20")
	var serverOut bytes.Buffer
	serverCmd.Stdout = &serverOut
	serverCmd.Stderr = &serverOut
	if err := serverCmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		serverCancel()
		_ = serverCmd.Wait()
		if t.Failed() {
			t.Logf("server output:\n%s", serverOut.String())
		}
	})

	tree := writeTree(t, map[string]string{"package.json": `{"engines":{"node":"0.8.x"}}`})

	var out string
	deadline := time.Now().Add(30 * time.Second)
	for {
		var err error
		out, err = runOut(ctx, repoRoot, nil, clientBin, "-target", addr, "-dir", tree)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("client never succeeded: %v\n%s", err, out)
		}
		time.Sleep(500 * time.Millisecond)
	}

	if !strings.Contains(out, "status=Success selection=Selected node=v0.8.2") {
		t.Fatalf("unexpected client output:\n%s", out)
	}
}

func buildBinary(t *testing.T, ctx context.Context, repoRoot, name string) string {
	t.Helper()

	bin := filepath.Join(t.TempDir(), name)
	runOrFail(t, ctx, repoRoot, nil, "go", "build", "-o", bin, "./cmd/"+name)
	return bin
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func pickFreePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// e2e/smoke_test.go -> repo root
	return filepath.Clean(filepath.Join(filepath.Dir(file), ".."))
}

func runOrFail(t *testing.T, ctx context.Context, dir string, env []string, name string, args ...string) string {
	t.Helper()

	out, err := runOut(ctx, dir, env, name, args...)
	if err != nil {
		t.Fatalf("%s %s failed: %v\n%s", name, strings.Join(args, " "), err, out)
	}
	return out
}

func runOut(ctx context.Context, dir string, env []string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
