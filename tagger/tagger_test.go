package tagger

import (
	"os"
	"path/filepath"
	"testing"

	"mixsplit/titles"
)

// a minimal valid-enough mp3: one MPEG frame header plus padding
func writeFakeMP3(t *testing.T, path string) {
	t.Helper()
	data := append([]byte{0xFF, 0xFB, 0x90, 0x00}, make([]byte, 416)...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestEmbedRoundTrip(t *testing.T) {
	scratch := t.TempDir()
	src := filepath.Join(scratch, "segment.mp3")
	writeFakeMP3(t, src)

	dest := filepath.Join(t.TempDir(), "Kavinsky - Nightcall.mp3")
	pt := titles.ParsedTitle{Artist: "Kavinsky", Title: "Nightcall"}

	if err := Embed(src, pt, "", dest); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	artist, title, err := ReadTags(dest)
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if artist != "Kavinsky" || title != "Nightcall" {
		t.Errorf("round-trip tags = (%q, %q); want (Kavinsky, Nightcall)", artist, title)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should have been moved to destination")
	}
}

func TestEmbedArtistlessTitle(t *testing.T) {
	scratch := t.TempDir()
	src := filepath.Join(scratch, "segment.mp3")
	writeFakeMP3(t, src)

	dest := filepath.Join(t.TempDir(), "Interlude.mp3")
	if err := Embed(src, titles.ParsedTitle{Title: "Interlude"}, "", dest); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	artist, title, err := ReadTags(dest)
	if err != nil {
		t.Fatalf("ReadTags() error = %v", err)
	}
	if artist != "" {
		t.Errorf("artist tag = %q; want empty for artistless title", artist)
	}
	if title != "Interlude" {
		t.Errorf("title tag = %q; want %q", title, "Interlude")
	}
}

func TestEmbedMissingThumbnailIsNotFatal(t *testing.T) {
	scratch := t.TempDir()
	src := filepath.Join(scratch, "segment.mp3")
	writeFakeMP3(t, src)

	dest := filepath.Join(t.TempDir(), "out.mp3")
	pt := titles.ParsedTitle{Artist: "A", Title: "B"}

	if err := Embed(src, pt, filepath.Join(scratch, "missing.jpg"), dest); err != nil {
		t.Fatalf("Embed() with unreadable thumbnail should degrade, got error %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestEmbedCreatesOutputDirectory(t *testing.T) {
	scratch := t.TempDir()
	src := filepath.Join(scratch, "segment.mp3")
	writeFakeMP3(t, src)

	dest := filepath.Join(t.TempDir(), "nested", "dir", "out.mp3")
	if err := Embed(src, titles.ParsedTitle{Artist: "A", Title: "B"}, "", dest); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestMoveFileAcrossDirectories(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(src, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "b.mp3")
	if err := moveFile(src, dest); err != nil {
		t.Fatalf("moveFile() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio" {
		t.Errorf("moved content = %q; want %q", data, "audio")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
}
