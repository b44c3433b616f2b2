package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bayleafwalker/nodeselect/internal/appconfig"
	"github.com/bayleafwalker/nodeselect/internal/resolver"
	"github.com/bayleafwalker/nodeselect/internal/runtimes"
	"github.com/bayleafwalker/nodeselect/internal/semver"
)

// LaunchConfigurer hands a selected runtime to whatever starts the application.
type LaunchConfigurer interface {
	Configure(ctx context.Context, targetDir string, sel resolver.Selected) error
}

// BinaryLocator finds the node binary of an installed runtime.
type BinaryLocator interface {
	BinaryPath(ctx context.Context, v semver.Version) (string, error)
}

// IISNodeWriter points iisnode at the selected runtime by setting
// nodeProcessCommandLine in the target's iisnode.yml. Other keys already in
// the file are kept.
type IISNodeWriter struct {
	Binaries BinaryLocator
}

func (w *IISNodeWriter) Configure(ctx context.Context, targetDir string, sel resolver.Selected) error {
	if w.Binaries == nil {
		return errors.New("deploy: iisnode writer has no binary locator")
	}
	binary, err := w.Binaries.BinaryPath(ctx, sel.Version)
	if err != nil {
		return err
	}

	path := filepath.Join(targetDir, appconfig.OverrideFile)
	doc, err := loadMapping(path)
	if err != nil {
		return err
	}
	setMappingValue(doc.Content[0], "nodeProcessCommandLine", binary)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", appconfig.OverrideFile, err)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", appconfig.OverrideFile, err)
	}
	return nil
}

// loadMapping returns the document at path, or a fresh empty mapping when the
// file is missing or not a YAML mapping.
func loadMapping(path string) (*yaml.Node, error) {
	fresh := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", appconfig.OverrideFile, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fresh, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fresh, nil
	}
	return &doc, nil
}

func setMappingValue(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

// NewPipeline builds a Pipeline over reg. When reg can locate runtime binaries
// the selection is also written to the target's iisnode.yml.
func NewPipeline(reg runtimes.Registry) *Pipeline {
	p := &Pipeline{Registry: reg}
	if locator, ok := reg.(BinaryLocator); ok {
		p.Launch = &IISNodeWriter{Binaries: locator}
	}
	return p
}
