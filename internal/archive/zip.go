// Package archive bundles the run's output files into a single zip for
// distribution.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipFiles writes the named files into a zip at dst, each stored under its
// base name.
func ZipFiles(dst string, files []string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", dst, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, file := range files {
		if err := addFile(w, file); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", dst, err)
	}
	return nil
}

func addFile(w *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	defer src.Close()

	entry, err := w.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}
