package tagger

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	id3v2 "github.com/bogem/id3v2/v2"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"mixsplit/titles"
)

// CropThumbnail crops the source image to a centered square and writes the
// result next to the source. The crop is a fixed center-anchored heuristic,
// not content-aware.
func CropThumbnail(thumbnailPath string) (string, error) {
	dest := filepath.Join(filepath.Dir(thumbnailPath), "cover_square.jpg")

	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", thumbnailPath,
		"-vf", "crop='min(iw,ih)':'min(iw,ih)'",
		"-loglevel", "error",
		dest)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("cropping thumbnail: %v, output: %s", err, string(output))
	}
	return dest, nil
}

// Embed moves the audio file to its final destination and writes artist/title
// ID3 tags plus cover art into it. An empty thumbnailPath produces a tag-only
// file; that is not an error.
func Embed(audioPath string, pt titles.ParsedTitle, thumbnailPath string, destPath string) error {
	logger := log.WithFields(log.Fields{"module": "tagger", "function": "Embed"})

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := moveFile(audioPath, destPath); err != nil {
		return fmt.Errorf("placing output file: %w", err)
	}

	tag, err := id3v2.Open(destPath, id3v2.Options{Parse: true})
	if err != nil {
		os.Remove(destPath)
		return fmt.Errorf("opening %s for tagging: %w", destPath, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(pt.Title)
	if pt.HasArtist() {
		tag.SetArtist(pt.Artist)
	}

	if thumbnailPath != "" {
		artwork, err := os.ReadFile(thumbnailPath)
		if err != nil {
			logger.Warnf("reading cover art failed, emitting tag-only: %v", err)
		} else {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     artwork,
			})
		}
	}

	if err := tag.Save(); err != nil {
		sentry.CaptureException(err)
		os.Remove(destPath)
		return fmt.Errorf("saving tags to %s: %w", destPath, err)
	}

	logger.Tracef("tagged %s ('%s')", destPath, pt.DisplayName())
	return nil
}

// ReadTags returns the artist/title tags of an audio file.
func ReadTags(path string) (string, string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", "", err
	}
	defer tag.Close()
	return tag.Artist(), tag.Title(), nil
}

// moveFile renames src to dest, falling back to a copy when the rename
// crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}
