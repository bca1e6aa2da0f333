//go:build ignore

// Command gen_plan generates a synthetic plan file for trying out upfchain.
//
// Usage:
//
//	go run ./scripts/gen_plan.go --stages 3 --nodes 4 --out plan.json
//
// The plan is a complete tree: every node below the root has --nodes
// children, down to --stages levels. Use --format yaml for a YAML plan.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/candle-hpc/upfchain/internal/plan"
)

func main() {
	var (
		stages int
		nodes  int
		root   string
		out    string
		format string
	)
	flag.IntVar(&stages, "stages", 2, "depth of the tree below the root")
	flag.IntVar(&nodes, "nodes", 2, "children per node")
	flag.StringVar(&root, "root", "root", "root key")
	flag.StringVar(&out, "out", "plan.json", "output path")
	flag.StringVar(&format, "format", "json", "json or yaml")
	flag.Parse()

	if stages < 1 || nodes < 1 {
		fmt.Fprintln(os.Stderr, "--stages and --nodes must be at least 1")
		os.Exit(2)
	}

	keys := []plan.Key{plan.Key(root)}
	level := []plan.Key{plan.Key(root)}
	for s := 0; s < stages; s++ {
		var next []plan.Key
		for _, k := range level {
			for i := 1; i <= nodes; i++ {
				next = append(next, k.Child(i))
			}
		}
		keys = append(keys, next...)
		level = next
	}

	var data []byte
	var err error
	switch format {
	case "json":
		data = encodeJSON(keys)
	case "yaml":
		data, err = encodeYAML(keys)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	b, err := plan.LoadBounds(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d keys, max stages %d, max nodes %d\n", out, len(keys), b.MaxStages, b.MaxNodes)
}

// encodeJSON writes the keys in order; encoding/json would sort map keys.
func encodeJSON(keys []plan.Key) []byte {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		buf.WriteString("  ")
		buf.WriteString(strconv.Quote(string(k)))
		buf.WriteString(": {}")
		if i < len(keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

func encodeYAML(keys []plan.Key) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(k)},
			&yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle},
		)
	}
	return yaml.Marshal(doc)
}
