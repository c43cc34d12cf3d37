package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/aicodegen/backend/internal/models"
)

// Build packs the generated files into an in-memory ZIP archive (deflate).
// Entries the model got wrong are skipped rather than failing the whole
// archive: empty paths, empty content, undecodable base64 and paths that
// escape the archive root.
func Build(files []models.File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	written := 0
	for _, f := range files {
		name, ok := cleanPath(f.Path)
		if !ok || f.Content == "" {
			continue
		}

		data := []byte(f.Content)
		if f.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(f.Content)
			if err != nil {
				continue
			}
			data = decoded
		}

		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create zip entry %q: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write zip entry %q: %w", name, err)
		}
		written++
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}
	if written == 0 {
		return nil, fmt.Errorf("no usable files in model response")
	}
	return buf.Bytes(), nil
}

// Stats summarizes the files the archive would contain, for the streaming
// manifest. Sizes are decoded sizes for base64 entries.
func Stats(files []models.File) []models.FileStat {
	stats := make([]models.FileStat, 0, len(files))
	for _, f := range files {
		name, ok := cleanPath(f.Path)
		if !ok || f.Content == "" {
			continue
		}
		size := len(f.Content)
		if f.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(f.Content)
			if err != nil {
				continue
			}
			size = len(decoded)
		}
		stats = append(stats, models.FileStat{
			Path:     name,
			Size:     size,
			Encoding: f.Encoding,
		})
	}
	return stats
}

// cleanPath normalizes an entry path and rejects anything that would land
// outside the extraction root.
func cleanPath(p string) (string, bool) {
	if p == "" || strings.Contains(p, "\\") {
		return "", false
	}
	cleaned := path.Clean(strings.TrimPrefix(p, "./"))
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
