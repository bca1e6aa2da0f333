package plan

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var planSchema string

// LoadKeys reads the plan file at path and returns its top-level keys in
// document order. Files ending in .yaml or .yml are read as YAML; anything
// else is read as JSON.
func LoadKeys(path string) ([]Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		keys, err := yamlKeys(data)
		if err != nil {
			return nil, &FormatError{Path: path, Reason: err.Error()}
		}
		return keys, nil
	default:
		if err := validateJSON(data); err != nil {
			return nil, &FormatError{Path: path, Reason: err.Error()}
		}
		keys, err := jsonKeys(data)
		if err != nil {
			return nil, &FormatError{Path: path, Reason: err.Error()}
		}
		return keys, nil
	}
}

// validateJSON checks the document against the embedded plan schema.
func validateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(planSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("not a JSON document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// jsonKeys streams the top-level object and collects its keys in order.
// Decoding into a map would lose the ordering the root lookup depends on.
func jsonKeys(data []byte) ([]Key, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("plan must be a JSON object")
	}

	var keys []Key
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("value of %q: %w", name, err)
		}
		keys = append(keys, Key(name))
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("unexpected data after plan object: %w", err)
		}
		return nil, fmt.Errorf("unexpected data after plan object: %v", tok)
	}
	return keys, nil
}

// yamlKeys returns the keys of the top-level mapping in document order.
func yamlKeys(data []byte) ([]Key, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		// empty document
		return nil, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("plan must be a YAML mapping")
	}

	keys := make([]Key, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys = append(keys, Key(root.Content[i].Value))
	}
	return keys, nil
}
