package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDirRoundTrip(t *testing.T) {
	root := t.TempDir()
	files := map[string][]byte{
		"invoice.md":                []byte("# Invoice\n\nhello"),
		"invoice_content_list.json": []byte(`[{"type":"text"}]`),
		"images/fig_1.png":          {0x89, 0x50, 0x4e, 0x47},
	}
	for rel, data := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}

	var buf bytes.Buffer
	if err := WriteDir(&buf, root, "invoice"); err != nil {
		t.Fatalf("write dir: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	got := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		got[f.Name] = data
	}

	if len(got) != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), len(got))
	}
	for rel, want := range files {
		name := "invoice/" + filepath.ToSlash(rel)
		data, ok := got[name]
		if !ok {
			t.Fatalf("missing entry %s", name)
		}
		if !bytes.Equal(data, want) {
			t.Fatalf("entry %s differs from source", name)
		}
	}
}

func TestWriteDirMissingRoot(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDir(&buf, filepath.Join(t.TempDir(), "gone"), "gone"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWriteDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteDir(&buf, path, "plain"); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}
