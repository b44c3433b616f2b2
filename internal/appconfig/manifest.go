package appconfig

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParseManifest extracts engines.node from package.json content.
//
// Anything that is not a JSON object with a string engines.node yields a
// Manifest without a constraint.
func ParseManifest(raw []byte) Manifest {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var doc struct {
		Engines json.RawMessage `json:"engines"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Engines) == 0 {
		return Manifest{}
	}

	var engines map[string]json.RawMessage
	if err := json.Unmarshal(doc.Engines, &engines); err != nil {
		return Manifest{}
	}

	var node string
	if err := json.Unmarshal(engines["node"], &node); err != nil {
		return Manifest{}
	}
	if strings.TrimSpace(node) == "" {
		return Manifest{}
	}
	return Manifest{EnginesNode: node}
}
