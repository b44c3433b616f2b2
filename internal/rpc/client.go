package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed RuntimeSelector client.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Resolve(ctx context.Context, req ResolveRequest, opts ...grpc.CallOption) (ResolveReply, error) {
	in, err := req.toStruct()
	if err != nil {
		return ResolveReply{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, resolveMethod, in, out, opts...); err != nil {
		return ResolveReply{}, err
	}
	return resolveReplyFrom(out)
}

func (c *Client) ListRuntimes(ctx context.Context, opts ...grpc.CallOption) (RuntimeList, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listRuntimesMethod, &structpb.Struct{}, out, opts...); err != nil {
		return RuntimeList{}, err
	}
	return runtimeListFrom(out)
}
