package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKey_Depth(t *testing.T) {
	tests := []struct {
		key  Key
		want int
	}{
		{"root", 1},
		{"root.1", 2},
		{"root.2.1", 3},
		{"1.1.1.1", 4},
	}

	for _, tt := range tests {
		if got := tt.key.Depth(); got != tt.want {
			t.Errorf("Depth(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestKey_Child(t *testing.T) {
	if got := Key("root.2").Child(3); got != "root.2.3" {
		t.Errorf("Child() = %q, want %q", got, "root.2.3")
	}
}

func TestKey_Width(t *testing.T) {
	w, err := Key("root.4.1").Width()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 4 {
		t.Errorf("Width() = %d, want 4", w)
	}

	if _, err := Key("root").Width(); err == nil {
		t.Error("expected error for key without width segment")
	}
	if _, err := Key("root.x").Width(); err == nil {
		t.Error("expected error for non-numeric width segment")
	}
}

func TestBoundsFromKeys(t *testing.T) {
	t.Run("derives bounds from non-root keys", func(t *testing.T) {
		b, err := BoundsFromKeys([]Key{"root", "root.1.1", "root.2.1", "root.1.1.1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Bounds{Root: "root", MaxStages: 4, MaxNodes: 2}
		if b != want {
			t.Errorf("got %+v, want %+v", b, want)
		}
	})

	t.Run("root is excluded from the scan", func(t *testing.T) {
		// The root has no width segment and would otherwise fail.
		b, err := BoundsFromKeys([]Key{"1", "1.3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Root != "1" || b.MaxStages != 2 || b.MaxNodes != 3 {
			t.Errorf("unexpected bounds: %+v", b)
		}
	})

	t.Run("root only yields zero bounds", func(t *testing.T) {
		b, err := BoundsFromKeys([]Key{"root"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.MaxStages != 0 || b.MaxNodes != 0 {
			t.Errorf("expected zero bounds, got %+v", b)
		}
	})

	tests := []struct {
		name string
		keys []Key
	}{
		{"empty", nil},
		{"single segment key", []Key{"root", "other"}},
		{"non-numeric width", []Key{"root", "root.a.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BoundsFromKeys(tt.keys)
			if !errors.Is(err, ErrPlanFormat) {
				t.Errorf("expected ErrPlanFormat, got %v", err)
			}
		})
	}
}

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

func TestLoadBounds_JSON(t *testing.T) {
	path := writePlan(t, "plan.json", `{
  "1": {"train": ["a"]},
  "1.1.1": {"train": ["b"]},
  "1.2.1": null,
  "1.1.1.1": {"val": [1, 2]}
}`)

	b, err := LoadBounds(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Bounds{Root: "1", MaxStages: 4, MaxNodes: 2}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}
}

func TestLoadKeys_PreservesDocumentOrder(t *testing.T) {
	path := writePlan(t, "plan.json", `{"z": 1, "a": 2, "m": {"nested": {"x": 1}}}`)

	keys, err := LoadKeys(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Key{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestLoadBounds_YAML(t *testing.T) {
	path := writePlan(t, "plan.yaml", `root: {}
root.3.1: {}
root.1.1.1:
  train: [a, b]
`)

	b, err := LoadBounds(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Bounds{Root: "root", MaxStages: 4, MaxNodes: 3}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}
}

func TestLoadBounds_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"empty object", "plan.json", `{}`},
		{"array document", "plan.json", `[1, 2]`},
		{"invalid json", "plan.json", `{"root": `},
		{"bad width", "plan.json", `{"root": 1, "root.x.1": 2}`},
		{"trailing text", "plan.json", `{"root": 1, "root.2.1": 2} trailing`},
		{"second object", "plan.json", `{"root": 1} {"root.2.1": 2}`},
		{"empty yaml", "plan.yml", ``},
		{"yaml sequence", "plan.yml", "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePlan(t, tt.file, tt.content)
			_, err := LoadBounds(path)
			if !errors.Is(err, ErrPlanFormat) {
				t.Fatalf("expected ErrPlanFormat, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.Path != path {
				t.Errorf("FormatError.Path = %q, want %q", fe.Path, path)
			}
		})
	}
}

func TestLoadBounds_MissingFile(t *testing.T) {
	_, err := LoadBounds(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrPlanFormat) {
		t.Error("read failures should not be reported as format errors")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestValidateJSON_RequiresEntries(t *testing.T) {
	if err := validateJSON([]byte(`{}`)); err == nil {
		t.Error("expected schema to reject an empty object")
	}
	if err := validateJSON([]byte(`{"root": {}}`)); err != nil {
		t.Errorf("unexpected error for root-only plan: %v", err)
	}
}
