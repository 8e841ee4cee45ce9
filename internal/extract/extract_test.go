package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", "The water  cycle\nhas stages.\n\nEvaporation comes first.\n")

	got, err := New().Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := "The water cycle has stages.\n\nEvaporation comes first."
	if got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("Extract() should fail for missing file")
	}
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x80}, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	_, err := New().Extract(path)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestExtract_TruncatesToCap(t *testing.T) {
	path := writeFile(t, "long.txt", strings.Repeat("word ", 100))

	got, err := New(WithMaxRunes(20)).Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len([]rune(got)) != 20 {
		t.Errorf("extracted length = %d runes, want 20", len([]rune(got)))
	}
}

func TestExtract_CorruptWorkbook(t *testing.T) {
	path := writeFile(t, "broken.xlsx", "this is not a zip archive")

	_, err := New().Extract(path)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("error = %v, want ErrExtractionFailed", err)
	}
}

func TestSignature(t *testing.T) {
	path := writeFile(t, "doc.txt", "stable content")

	first, err := Signature(path)
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(first))
	}

	second, err := Signature(path)
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if first != second {
		t.Error("Signature() should be deterministic for identical content")
	}

	other, err := Signature(writeFile(t, "other.txt", "different content"))
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if other == first {
		t.Error("Signature() should differ for different content")
	}
}
