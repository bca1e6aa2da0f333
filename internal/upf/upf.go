// Package upf expands a plan root into per-stage unit-of-parallelism files.
package upf

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/candle-hpc/upfchain/internal/plan"
)

// ErrStageWrite is returned when a stage file cannot be written.
var ErrStageWrite = errors.New("failed to write stage file")

// Result holds the generated stage files and the number of nodes in each,
// both in stage order.
type Result struct {
	Files  []string
	Counts []int
}

// Stages returns the number of generated stages.
func (r Result) Stages() int {
	return len(r.Files)
}

// Total returns the number of nodes across all stages.
func (r Result) Total() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// StagePath returns the file path for a 1-based stage.
func StagePath(prefix string, stage int) string {
	return fmt.Sprintf("%ss%d_upf.txt", prefix, stage)
}

// Children expands every parent into nodeCount children, keeping parent
// order and child-index order.
func Children(parents []plan.Key, nodeCount int) []plan.Key {
	if nodeCount <= 0 {
		return nil
	}
	children := make([]plan.Key, 0, len(parents)*nodeCount)
	for _, p := range parents {
		for i := 1; i <= nodeCount; i++ {
			children = append(children, p.Child(i))
		}
	}
	return children
}

// Generate performs a breadth-first expansion of root to stageCount levels,
// writing each level to its own stage file. Files written before a failure
// are left in place.
func Generate(root plan.Key, stageCount, nodeCount int, prefix string) (Result, error) {
	var res Result
	frontier := []plan.Key{root}

	for s := 1; s <= stageCount; s++ {
		children := Children(frontier, nodeCount)
		path := StagePath(prefix, s)
		if err := writeStage(path, children); err != nil {
			return res, err
		}
		res.Files = append(res.Files, path)
		res.Counts = append(res.Counts, len(children))
		frontier = children
	}
	return res, nil
}

func writeStage(path string, nodes []plan.Key) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrStageWrite, path, err)
	}

	w := bufio.NewWriter(f)
	for _, n := range nodes {
		if _, err := w.WriteString(string(n) + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("%w %s: %w", ErrStageWrite, path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w %s: %w", ErrStageWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrStageWrite, path, err)
	}
	return nil
}
