package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mixsplit/config"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

type VideoResponse struct {
	Title   string `json:"title"`
	VideoID string `json:"video_id"`
}

// Mix is a fully fetched long-form recording: its audio on disk, its
// thumbnail, and the chapter list derived from the video metadata.
type Mix struct {
	VideoID       string
	Title         string
	AudioPath     string
	ThumbnailPath string
	Duration      float64
	Chapters      []Chapter
}

// videoMetadata is the subset of yt-dlp --dump-json output we consume.
type videoMetadata struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    float64       `json:"duration"`
	Thumbnail   string        `json:"thumbnail"`
	Chapters    []jsonChapter `json:"chapters"`
}

type jsonChapter struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
}

func ParseYoutubeUrl(_url string) string {
	parsedURL, err := url.Parse(_url)
	if err != nil {
		return ""
	}

	switch parsedURL.Host {
	case "www.youtube.com", "youtube.com", "music.youtube.com":
		return parsedURL.Query().Get("v")
	case "youtu.be":
		return strings.TrimPrefix(parsedURL.Path, "/")
	}

	return ""
}

// FetchMix downloads a mix's audio and thumbnail into scratchDir and returns
// it with its chapter list. Chapter-less videos fall back to timestamps
// parsed out of the description; missing thumbnail metadata falls back to the
// watch page's og:image.
func FetchMix(ctx context.Context, videoURL string, scratchDir string) (*Mix, error) {
	logger := log.WithFields(log.Fields{"module": "youtube", "function": "FetchMix"})

	span := sentry.StartSpan(ctx, "youtube.fetch_mix")
	span.Description = "Fetch mix audio and metadata"
	span.SetTag("url", videoURL)
	defer span.Finish()

	meta, err := fetchMetadata(ctx, videoURL)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("fetching metadata for %s: %w", videoURL, err)
	}

	title := meta.Title
	thumbnailURL := meta.Thumbnail
	if title == "" || thumbnailURL == "" {
		if videoID := ParseYoutubeUrl(videoURL); videoID != "" {
			pageTitle, pageThumb, scrapeErr := ScrapeWatchPage(ctx, videoID)
			if scrapeErr != nil {
				logger.Warnf("watch page scrape fallback failed: %v", scrapeErr)
			} else {
				if title == "" {
					title = pageTitle
				}
				if thumbnailURL == "" {
					thumbnailURL = pageThumb
				}
			}
		}
	}

	chapters := ChaptersFromMetadata(meta)
	if len(chapters) == 0 {
		logger.Warnf("no chapters found for %s", videoURL)
	}

	audioPath, err := downloadAudio(ctx, videoURL, filepath.Join(scratchDir, "mix.mp3"))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		sentry.CaptureException(err)
		return nil, fmt.Errorf("downloading mix audio: %w", err)
	}

	thumbnailPath := ""
	if thumbnailURL != "" {
		thumbnailPath, err = downloadThumbnail(ctx, thumbnailURL, filepath.Join(scratchDir, "cover.jpg"))
		if err != nil {
			// tracks are still emitted tag-only without art
			logger.Warnf("thumbnail download failed: %v", err)
			thumbnailPath = ""
		}
	}

	span.Status = sentry.SpanStatusOK
	return &Mix{
		VideoID:       meta.ID,
		Title:         title,
		AudioPath:     audioPath,
		ThumbnailPath: thumbnailPath,
		Duration:      meta.Duration,
		Chapters:      chapters,
	}, nil
}

func fetchMetadata(ctx context.Context, videoURL string) (*videoMetadata, error) {
	logger := log.WithFields(log.Fields{"module": "youtube", "function": "fetchMetadata"})

	var output []byte
	var err error

	retries := config.Config.Youtube.YtdlpRetries
	for i := range retries {
		cmdCtx, cancel := context.WithTimeout(ctx, fetchTimeout())
		cmd := exec.CommandContext(cmdCtx, "yt-dlp",
			"--dump-json",
			"--no-playlist",
			"--socket-timeout", "10",
			"--no-warnings",
			videoURL)

		output, err = cmd.Output()
		cancel()
		if err != nil {
			logger.WithFields(log.Fields{
				"attempt": i + 1,
				"error":   err,
			}).Error("yt-dlp metadata dump failed")

			if i == retries-1 {
				return nil, fmt.Errorf("yt-dlp error after %d attempts: %v", retries, err)
			}
			continue
		}
		break
	}

	var meta videoMetadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return nil, fmt.Errorf("parsing yt-dlp metadata: %w", err)
	}
	return &meta, nil
}

func downloadAudio(ctx context.Context, videoURL string, dest string) (string, error) {
	logger := log.WithFields(log.Fields{"module": "youtube", "function": "downloadAudio"})

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	var output []byte
	var err error

	retries := config.Config.Youtube.YtdlpRetries
	for i := range retries {
		cmdCtx, cancel := context.WithTimeout(ctx, fetchTimeout())
		cmd := exec.CommandContext(cmdCtx, "yt-dlp",
			"-f", "bestaudio",
			"--no-playlist",
			"-x", "--audio-format", "mp3",
			"--socket-timeout", "10",
			"--no-warnings",
			"-o", dest,
			videoURL)

		output, err = cmd.CombinedOutput()
		cancel()
		if err != nil {
			logger.WithFields(log.Fields{
				"attempt": i + 1,
				"error":   err,
				"output":  string(output),
			}).Error("yt-dlp download failed")

			if i == retries-1 {
				return "", fmt.Errorf("yt-dlp error after %d attempts: %v, output: %s", retries, err, string(output))
			}
			continue
		}
		break
	}

	logger.Tracef("downloaded audio to %s", dest)
	return dest, nil
}

func downloadThumbnail(ctx context.Context, thumbnailURL string, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", thumbnailURL, nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("thumbnail request returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

// Search queries the YouTube Data API for candidate standalone uploads of a
// track. Results are filtered to the music category and capped at 12 minutes
// so full mixes and compilations do not match themselves.
func Search(query string) []VideoResponse {
	logger := log.WithFields(log.Fields{"module": "youtube", "function": "Search"})

	span := sentry.StartSpan(context.Background(), "youtube.search")
	span.Description = "Search YouTube API"
	span.SetTag("query", query)
	defer span.Finish()

	apiKey := config.Config.Youtube.APIKey
	if apiKey == "" {
		logger.Warn("YOUTUBE_API_KEY not set, skipping search")
		return []VideoResponse{}
	}

	service, err := ytapi.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		logger.Errorf("error creating YouTube client: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return []VideoResponse{}
	}

	call := service.Search.List([]string{"snippet"}).
		Q(query + " (official audio|official music video|audio|lyrics)").
		MaxResults(int64(config.Config.Youtube.SearchLimit)).
		Type("video").
		VideoCategoryId("10")

	response, err := call.Do()
	if err != nil {
		logger.Errorf("error querying YouTube: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return []VideoResponse{}
	}

	videoIDs := make([]string, 0)
	videoMap := make(map[string]string)

	for _, item := range response.Items {
		if item.Id.Kind == "youtube#video" {
			videoIDs = append(videoIDs, item.Id.VideoId)
			videoMap[item.Id.VideoId] = html.UnescapeString(item.Snippet.Title)
		}
	}

	if len(videoIDs) == 0 {
		return []VideoResponse{}
	}

	// Batch request for all video details (single API call instead of N calls)
	videoCall := service.Videos.List([]string{"contentDetails"}).Id(videoIDs...)
	videoResponse, err := videoCall.Do()
	if err != nil {
		logger.Errorf("error getting video details: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return []VideoResponse{}
	}

	videos := make([]VideoResponse, 0)
	for _, item := range videoResponse.Items {
		duration := item.ContentDetails.Duration
		minutes := parseDuration(duration)
		if minutes <= 12 {
			videos = append(videos, VideoResponse{
				Title:   videoMap[item.Id],
				VideoID: item.Id,
			})
		}
	}

	span.Status = sentry.SpanStatusOK
	logger.Tracef("found %d videos", len(videos))
	return videos
}

// DownloadByID fetches a standalone track's audio as mp3 into dest.
func DownloadByID(ctx context.Context, videoID string, dest string) (string, error) {
	return downloadAudio(ctx, "https://www.youtube.com/watch?v="+videoID, dest)
}

func fetchTimeout() time.Duration {
	return time.Duration(config.Config.Youtube.FetchTimeoutS) * time.Second
}

func parseDuration(duration string) float64 {
	duration = strings.TrimPrefix(duration, "PT")

	var minutes float64
	if strings.Contains(duration, "H") {
		return 999
	}

	if idx := strings.Index(duration, "M"); idx != -1 {
		m, _ := strconv.ParseFloat(duration[:idx], 64)
		minutes = m
		duration = duration[idx+1:]
	}

	if idx := strings.Index(duration, "S"); idx != -1 {
		s, _ := strconv.ParseFloat(duration[:idx], 64)
		minutes += s / 60
	}

	return minutes
}
