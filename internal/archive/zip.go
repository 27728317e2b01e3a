// Package archive packages a job's output directory into a zip stream.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteDir walks root recursively and writes every regular file into a zip
// archive on w, preserving relative paths under a single top-level folder.
// The archive is produced incrementally, so the caller can hand in an
// http.ResponseWriter and stream it without buffering to disk.
func WriteDir(w io.Writer, root, topLevel string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(topLevel, rel))
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		_, err = io.Copy(entry, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
