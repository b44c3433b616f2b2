package appconfig

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const nodeProcessCommandLineKey = "nodeProcessCommandLine"

// iisnode.yml files routinely carry Windows paths in double quotes, which is
// not valid YAML ("C:\Program Files\..."). When the YAML parser rejects the
// file the key is still detected by scanning lines. Only an unindented key
// counts, the same top-level rule the YAML path applies.
var nodeProcessCommandLineLine = regexp.MustCompile(`(?m)^` + nodeProcessCommandLineKey + `[ \t]*:(.*)$`)

// ParseOverride extracts nodeProcessCommandLine from iisnode.yml content.
func ParseOverride(raw []byte) Override {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return scanOverride(raw)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Override{}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Override{}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value != nodeProcessCommandLineKey {
			continue
		}
		cmdline := ""
		if value.Kind == yaml.ScalarNode && value.Tag != "!!null" {
			cmdline = value.Value
		}
		return Override{NodeProcessCommandLine: &cmdline}
	}
	return Override{}
}

func scanOverride(raw []byte) Override {
	m := nodeProcessCommandLineLine.FindSubmatch(raw)
	if m == nil {
		return Override{}
	}
	cmdline := strings.TrimSpace(string(m[1]))
	if len(cmdline) >= 2 {
		first, last := cmdline[0], cmdline[len(cmdline)-1]
		if (first == '"' || first == '\'') && first == last {
			cmdline = cmdline[1 : len(cmdline)-1]
		}
	}
	return Override{NodeProcessCommandLine: &cmdline}
}
