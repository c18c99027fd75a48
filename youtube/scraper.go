package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var scraperClient = &http.Client{
	Timeout: 10 * time.Second,
}

// ScrapeWatchPage fetches a video's watch page and pulls title and thumbnail
// URL out of its Open Graph meta tags. Used as a fallback when yt-dlp
// metadata comes back incomplete.
func ScrapeWatchPage(ctx context.Context, videoID string) (string, string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", "", err
	}

	// Set realistic User-Agent to avoid blocks
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	log.Tracef("Fetching watch page: %s", pageURL)

	resp, err := scraperClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parsing watch page: %w", err)
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	thumbnail, _ := doc.Find(`meta[property="og:image"]`).Attr("content")

	if title == "" && thumbnail == "" {
		return "", "", errors.New("no Open Graph metadata on watch page")
	}

	return title, thumbnail, nil
}
