package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempZonesFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadZonesFileSkipsBlankAndCommentLines(t *testing.T) {
	path := writeTempZonesFile(t, "example.com.\n\n# a comment\nwww.example.org.\n")
	got, err := ReadZonesFile(path)
	if err != nil {
		t.Fatalf("ReadZonesFile: %v", err)
	}
	want := []string{"example.com.", "www.example.org."}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("ReadZonesFile = %v, want %v", got, want)
	}
}

func TestReadZonesFileDeduplicatesByNormalizedName(t *testing.T) {
	path := writeTempZonesFile(t, "example.com.\nEXAMPLE.com\nexample.com\n")
	got, err := ReadZonesFile(path)
	if err != nil {
		t.Fatalf("ReadZonesFile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected dedup to collapse to 1 entry, got %v", got)
	}
}

func TestReadZonesFileRejectsEmptyFile(t *testing.T) {
	path := writeTempZonesFile(t, "\n# only comments\n")
	if _, err := ReadZonesFile(path); err == nil {
		t.Fatal("expected error for a zones file with no zone names")
	}
}

func TestReadZonesFileRejectsMissingFile(t *testing.T) {
	if _, err := ReadZonesFile(filepath.Join(t.TempDir(), "does-not-exist.txt")); err == nil {
		t.Fatal("expected error for a missing zones file")
	}
}
