package rpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ResolveRequest asks the service to select a runtime for a working tree.
type ResolveRequest struct {
	WorkingTree string
	// TargetDir is optional and relative to the server's target root. When set
	// the selection is written to its iisnode.yml.
	TargetDir string
}

// ResolveReply mirrors deploy.Result on the wire.
type ResolveReply struct {
	Status         string
	Selection      string
	NodeVersion    string
	RuntimeVersion string
	Trace          []string
	// Error is set when the deployment failed for an infrastructure reason.
	Error string
}

// RuntimeList is the host's installed runtimes.
type RuntimeList struct {
	Default   string
	Available []string
}

func (r ResolveRequest) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{"workingTree": r.WorkingTree}
	if r.TargetDir != "" {
		fields["targetDir"] = r.TargetDir
	}
	return structpb.NewStruct(fields)
}

func resolveRequestFrom(s *structpb.Struct) ResolveRequest {
	return ResolveRequest{
		WorkingTree: stringField(s, "workingTree"),
		TargetDir:   stringField(s, "targetDir"),
	}
}

func (r ResolveReply) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"status":         r.Status,
		"selection":      r.Selection,
		"nodeVersion":    r.NodeVersion,
		"runtimeVersion": r.RuntimeVersion,
		"trace":          stringList(r.Trace),
	}
	if r.Error != "" {
		fields["error"] = r.Error
	}
	return structpb.NewStruct(fields)
}

func resolveReplyFrom(s *structpb.Struct) (ResolveReply, error) {
	trace, err := listField(s, "trace")
	if err != nil {
		return ResolveReply{}, err
	}
	return ResolveReply{
		Status:         stringField(s, "status"),
		Selection:      stringField(s, "selection"),
		NodeVersion:    stringField(s, "nodeVersion"),
		RuntimeVersion: stringField(s, "runtimeVersion"),
		Trace:          trace,
		Error:          stringField(s, "error"),
	}, nil
}

func (l RuntimeList) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"default":   l.Default,
		"available": stringList(l.Available),
	})
}

func runtimeListFrom(s *structpb.Struct) (RuntimeList, error) {
	available, err := listField(s, "available")
	if err != nil {
		return RuntimeList{}, err
	}
	return RuntimeList{Default: stringField(s, "default"), Available: available}, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func listField(s *structpb.Struct, key string) ([]string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("field %q is not a list", key)
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		str, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("field %q[%d] is not a string", key, i)
		}
		out = append(out, str.StringValue)
	}
	return out, nil
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
