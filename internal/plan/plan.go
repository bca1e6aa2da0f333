package plan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPlanFormat is returned when a plan is empty or one of its keys cannot be
// interpreted as a stage path.
var ErrPlanFormat = errors.New("invalid plan format")

// Key is a dot-delimited path identifying a node in the plan tree,
// e.g. "root.2.1".
type Key string

// Segments returns the dot-delimited parts of the key.
func (k Key) Segments() []string {
	return strings.Split(string(k), ".")
}

// Depth returns the number of path segments. The root has depth 1.
func (k Key) Depth() int {
	return len(k.Segments())
}

// Child returns the key of the index-th child (1-based) of k.
func (k Key) Child(index int) Key {
	return Key(string(k) + "." + strconv.Itoa(index))
}

// Width returns the sibling-group width encoded in the second path segment.
func (k Key) Width() (int, error) {
	parts := k.Segments()
	if len(parts) < 2 {
		return 0, fmt.Errorf("key %q has no width segment", k)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("key %q has non-numeric width segment %q", k, parts[1])
	}
	return n, nil
}

// Bounds summarizes the structure of a plan. It is derived once per run.
type Bounds struct {
	Root      Key `json:"root"`
	MaxStages int `json:"maxStages"`
	MaxNodes  int `json:"maxNodes"`
}

// FormatError describes why a plan could not be turned into Bounds.
type FormatError struct {
	Path   string
	Key    Key
	Reason string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("invalid plan")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " (key %q)", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Unwrap lets callers match with errors.Is(err, ErrPlanFormat).
func (e *FormatError) Unwrap() error {
	return ErrPlanFormat
}

// BoundsFromKeys derives the plan bounds from keys in source order.
// The first key is the root and is excluded from the scan.
func BoundsFromKeys(keys []Key) (Bounds, error) {
	if len(keys) == 0 {
		return Bounds{}, &FormatError{Reason: "plan has no entries"}
	}

	b := Bounds{Root: keys[0]}
	for _, k := range keys[1:] {
		width, err := k.Width()
		if err != nil {
			return Bounds{}, &FormatError{Key: k, Reason: err.Error()}
		}
		b.MaxStages = max(b.MaxStages, k.Depth())
		b.MaxNodes = max(b.MaxNodes, width)
	}
	return b, nil
}

// LoadBounds reads the plan at path and derives its bounds.
func LoadBounds(path string) (Bounds, error) {
	keys, err := LoadKeys(path)
	if err != nil {
		return Bounds{}, err
	}

	b, err := BoundsFromKeys(keys)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return Bounds{}, err
	}
	return b, nil
}
