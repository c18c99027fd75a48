package spotify

import (
	"context"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"mixsplit/config"
	"mixsplit/titles"
)

var Spotify *spotifyclient.Client

type TrackInfo struct {
	Title   string
	Artists []string
}

func NewSpotifyClient() error {
	ctx := context.Background()
	cfg := &clientcredentials.Config{
		ClientID:     config.Config.Spotify.ClientID,
		ClientSecret: config.Config.Spotify.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := cfg.Token(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	client := spotifyclient.New(httpClient)
	Spotify = client
	return nil
}

// Canonicalize looks up the parsed artist/title on Spotify and, when a
// matching track is found, returns the catalog's official spelling. Best
// effort: any failure or miss returns the input unchanged.
func Canonicalize(pt titles.ParsedTitle) titles.ParsedTitle {
	if Spotify == nil || !pt.HasArtist() {
		return pt
	}

	ctx := context.Background()

	span := sentry.StartSpan(ctx, "spotify.canonicalize")
	span.Description = "Canonicalize track via Spotify search"
	span.SetTag("query", pt.DisplayName())
	defer span.Finish()

	results, err := Spotify.Search(ctx, pt.Artist+" "+pt.Title, spotifyclient.SearchTypeTrack)
	if err != nil {
		log.Warnf("Spotify search failed for %q: %v", pt.DisplayName(), err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return pt
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		span.Status = sentry.SpanStatusOK
		return pt
	}

	for _, track := range results.Tracks.Tracks {
		artists := make([]string, 0, len(track.Artists))
		for _, artist := range track.Artists {
			artists = append(artists, artist.Name)
		}
		info := TrackInfo{Title: track.Name, Artists: artists}

		if matchesParsed(info, pt) {
			log.Debugf("canonicalized %q to '%s - %s'", pt.DisplayName(), artists[0], track.Name)
			span.Status = sentry.SpanStatusOK
			return titles.ParsedTitle{
				Artist: artists[0],
				Title:  track.Name,
				Raw:    pt.Raw,
			}
		}
	}

	span.Status = sentry.SpanStatusOK
	return pt
}

// matchesParsed accepts a catalog track only when its title and one of its
// artists line up with the parsed strings, so a near-miss search hit cannot
// rewrite the tags to a different song.
func matchesParsed(info TrackInfo, pt titles.ParsedTitle) bool {
	if !strings.EqualFold(strings.TrimSpace(info.Title), strings.TrimSpace(pt.Title)) &&
		!strings.Contains(strings.ToLower(info.Title), strings.ToLower(pt.Title)) {
		return false
	}
	for _, artist := range info.Artists {
		if strings.EqualFold(strings.TrimSpace(artist), strings.TrimSpace(pt.Artist)) {
			return true
		}
	}
	return false
}
