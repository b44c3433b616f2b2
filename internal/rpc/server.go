package rpc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/bayleafwalker/nodeselect/internal/buildlog"
	"github.com/bayleafwalker/nodeselect/internal/deploy"
)

// Server implements RuntimeSelectorServer on top of a deployment pipeline.
type Server struct {
	Pipeline *deploy.Pipeline
	Log      logr.Logger
	// TargetRoot confines request targetDir values. A targetDir is taken
	// relative to it and may not escape it. Empty rejects every targetDir.
	TargetRoot string
}

var _ RuntimeSelectorServer = (*Server)(nil)

func NewServer(p *deploy.Pipeline, logger logr.Logger) *Server {
	return &Server{Pipeline: p, Log: logger}
}

// Resolve runs the pipeline for one working tree.
//
// A failed deployment is a successful call: the outcome is in the reply.
// Only malformed requests and a missing pipeline are gRPC errors.
func (s *Server) Resolve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := resolveRequestFrom(in)
	if strings.TrimSpace(req.WorkingTree) == "" {
		return nil, status.Error(codes.InvalidArgument, "workingTree is required")
	}
	if s.Pipeline == nil {
		return nil, status.Error(codes.FailedPrecondition, "no deployment pipeline configured")
	}
	targetDir, err := s.targetPath(req.TargetDir)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logger := s.Log.WithValues("method", "Resolve", "workingTree", req.WorkingTree)
	ctx = log.IntoContext(ctx, logger)

	sink := buildlog.NewMemory()
	result, runErr := s.Pipeline.Run(ctx, deploy.Request{WorkingTree: req.WorkingTree, TargetDir: targetDir}, sink)

	reply := ResolveReply{
		Status:         string(result.Status),
		NodeVersion:    result.NodeVersion(),
		RuntimeVersion: result.RuntimeVersion(),
		Trace:          sink.Lines(),
	}
	if result.Resolution != nil {
		reply.Selection = string(result.Resolution.Outcome())
	}
	if runErr != nil {
		reply.Error = runErr.Error()
	}

	out, err := reply.toStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

// ListRuntimes reports the runtimes the pipeline's registry sees right now.
func (s *Server) ListRuntimes(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.Pipeline == nil || s.Pipeline.Registry == nil {
		return nil, status.Error(codes.FailedPrecondition, "no runtime registry configured")
	}

	ctx = log.IntoContext(ctx, s.Log.WithValues("method", "ListRuntimes"))
	snap, err := s.Pipeline.Registry.Snapshot(ctx)
	if err != nil {
		s.Log.Error(err, "failed to enumerate node.js runtimes")
		return nil, status.Errorf(codes.Unavailable, "enumerate node.js runtimes: %v", err)
	}

	list := RuntimeList{Default: snap.Default.String(), Available: make([]string, 0, len(snap.Available))}
	for _, v := range snap.Available {
		list.Available = append(list.Available, v.String())
	}

	out, err := list.toStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

// targetPath resolves a requested targetDir under TargetRoot.
func (s *Server) targetPath(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if s.TargetRoot == "" {
		return "", errors.New("targetDir is not accepted by this server")
	}
	if filepath.IsAbs(dir) {
		return "", fmt.Errorf("targetDir %q must be relative to the server's target root", dir)
	}
	root := filepath.Clean(s.TargetRoot)
	path := filepath.Join(root, dir)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("targetDir %q escapes the server's target root", dir)
	}
	return path, nil
}
