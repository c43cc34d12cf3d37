package archive

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aicodegen/backend/internal/models"
)

func readEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open produced archive: %v", err)
	}

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries
}

func TestBuildTextFiles(t *testing.T) {
	files := []models.File{
		{Path: "README.md", Content: "# time-api\n"},
		{Path: "src/main.go", Content: "package main\n"},
	}

	data, err := Build(files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	entries := readEntries(t, data)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if string(entries["README.md"]) != "# time-api\n" {
		t.Errorf("Unexpected README content: %q", entries["README.md"])
	}
	if string(entries["src/main.go"]) != "package main\n" {
		t.Errorf("Unexpected main.go content: %q", entries["src/main.go"])
	}
}

func TestBuildBase64File(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	files := []models.File{
		{Path: "logo.png", Content: base64.StdEncoding.EncodeToString(raw), Encoding: "base64"},
	}

	data, err := Build(files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	entries := readEntries(t, data)
	if !bytes.Equal(entries["logo.png"], raw) {
		t.Errorf("Base64 entry not decoded: got %v, want %v", entries["logo.png"], raw)
	}
}

func TestBuildSkipsBadEntries(t *testing.T) {
	files := []models.File{
		{Path: "", Content: "no path"},
		{Path: "empty.txt", Content: ""},
		{Path: "bad.bin", Content: "!!! not base64 !!!", Encoding: "base64"},
		{Path: "../escape.txt", Content: "traversal"},
		{Path: "/etc/passwd", Content: "absolute"},
		{Path: "ok.txt", Content: "fine"},
	}

	data, err := Build(files)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	entries := readEntries(t, data)
	if len(entries) != 1 {
		t.Fatalf("Expected only 1 entry to survive, got %d: %v", len(entries), entries)
	}
	if string(entries["ok.txt"]) != "fine" {
		t.Errorf("Unexpected surviving entry content: %q", entries["ok.txt"])
	}
}

func TestBuildEmptyManifest(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Error("Expected error for empty manifest, got nil")
	}
	if _, err := Build([]models.File{{Path: "../../x", Content: "y"}}); err == nil {
		t.Error("Expected error when every entry is skipped, got nil")
	}
}

func TestStats(t *testing.T) {
	raw := []byte("binary-data")
	files := []models.File{
		{Path: "./docs/guide.md", Content: "hello"},
		{Path: "blob.bin", Content: base64.StdEncoding.EncodeToString(raw), Encoding: "base64"},
		{Path: "", Content: "skipped"},
	}

	stats := Stats(files)
	if len(stats) != 2 {
		t.Fatalf("Expected 2 stats, got %d", len(stats))
	}
	if stats[0].Path != "docs/guide.md" || stats[0].Size != 5 {
		t.Errorf("Unexpected first stat: %+v", stats[0])
	}
	if stats[1].Path != "blob.bin" || stats[1].Size != len(raw) {
		t.Errorf("Unexpected second stat: %+v", stats[1])
	}
}
