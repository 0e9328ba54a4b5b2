package ingest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListPDFs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "a.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.pdf"))
	touch(t, filepath.Join(root, ".cache", "d.pdf"))
	touch(t, filepath.Join(root, ".hidden.pdf"))

	tests := []struct {
		name       string
		skipHidden bool
		want       []string
	}{
		{
			name:       "skip hidden",
			skipHidden: true,
			want:       []string{"a.PDF", "b.pdf", "sub/c.pdf"},
		},
		{
			name:       "include hidden",
			skipHidden: false,
			want:       []string{".cache/d.pdf", ".hidden.pdf", "a.PDF", "b.pdf", "sub/c.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListPDFs(root, tt.skipHidden)
			if err != nil {
				t.Fatalf("ListPDFs: %v", err)
			}
			var rel []string
			for _, p := range got {
				r, _ := filepath.Rel(root, p)
				rel = append(rel, filepath.ToSlash(r))
			}
			if !reflect.DeepEqual(rel, tt.want) {
				t.Errorf("got %v, want %v", rel, tt.want)
			}
		})
	}
}

func TestListPDFs_Errors(t *testing.T) {
	if _, err := ListPDFs("  ", true); err == nil {
		t.Error("expected error for empty root")
	}
	if _, err := ListPDFs(filepath.Join(t.TempDir(), "missing"), true); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestIsHidden(t *testing.T) {
	cases := map[string]bool{
		"/tmp/.git":    true,
		"/tmp/a.pdf":   false,
		".":            false,
		"dir/.env.pdf": true,
	}
	for in, want := range cases {
		if got := IsHidden(in); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", in, got, want)
		}
	}
}
