// Package archive bundles a batch of encoded carrier images plus
// their sidecar metadata into a single distributable .tar.zst file.
// This is a CLI-only convenience: on-disk I/O and any CLI surface sit
// outside the codec's scope, so this stays a thin wrapper around
// archive/tar and github.com/klauspost/compress/zstd.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Bundle walks dir (non-recursively) and writes every regular file it
// finds into a tar stream, zstd-compressed, at outPath.
func Bundle(dir, outPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("archive: reading %s: %w", dir, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("archive: creating %s: %w", outPath, err)
	}
	defer out.Close()

	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("archive: creating zstd writer: %w", err)
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := addFile(tw, path, e.Name()); err != nil {
			return fmt.Errorf("archive: adding %s: %w", path, err)
		}
	}
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Unbundle reverses Bundle, extracting every entry of the archive at
// archivePath into destDir.
func Unbundle(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("archive: opening %s: %w", archivePath, err)
	}
	defer in.Close()

	zr, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("archive: creating zstd reader: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("archive: creating %s: %w", destDir, err)
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive: reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dst := filepath.Join(destDir, filepath.Base(hdr.Name))
		f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("archive: creating %s: %w", dst, err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return fmt.Errorf("archive: extracting %s: %w", dst, err)
		}
		f.Close()
	}
}
