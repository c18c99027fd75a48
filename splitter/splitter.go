package splitter

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"mixsplit/config"
)

// ErrInvalidRange is returned when a requested segment has start >= end.
var ErrInvalidRange = errors.New("invalid segment range")

// CheckFFmpeg reports whether ffmpeg is available on the system.
func CheckFFmpeg() bool {
	if err := exec.Command("ffmpeg", "-version").Run(); err != nil {
		return false
	}
	return true
}

// Extract cuts the [start, end) range out of the mix audio into dest as mp3.
// No partial file is left behind on any failure path.
func Extract(audioPath string, start, end float64, dest string) error {
	logger := log.WithFields(log.Fields{"module": "splitter", "function": "Extract"})

	if start >= end {
		return fmt.Errorf("%w: start %.2f >= end %.2f", ErrInvalidRange, start, end)
	}

	ffmpeg := exec.Command("ffmpeg",
		"-y",
		"-i", audioPath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end-start),
		"-c:a", "libmp3lame",
		"-map", "0:a:0",
		"-map_metadata", "-1",
		"-loglevel", "error",
		"-f", "mp3",
		dest)

	began := time.Now()

	done := make(chan error)
	go func() {
		output, err := ffmpeg.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("ffmpeg: %v, output: %s", err, string(output))
		}
		done <- err
	}()

	timeout := time.Duration(config.Config.Splitter.FfmpegTimeoutS) * time.Second

	select {
	case err := <-done:
		if err != nil {
			logger.Errorf("segment extraction failed: %v", err)
			sentry.CaptureException(err)
			os.Remove(dest)
			return err
		}
		logger.Tracef("extracted [%s, %s) to %s in %v",
			formatSeconds(start), formatSeconds(end), dest, time.Since(began))
		return nil
	case <-time.After(timeout):
		ffmpeg.Process.Kill()
		os.Remove(dest)
		err := fmt.Errorf("ffmpeg timed out after %v extracting [%.2f, %.2f)", timeout, start, end)
		logger.Error(err)
		sentry.CaptureException(err)
		return err
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
