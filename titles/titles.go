package titles

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParsedTitle is the artist/title split extracted from a raw chapter or video
// title. Artist is empty when no separator pattern matched, in which case Title
// carries the whole trimmed raw string.
type ParsedTitle struct {
	Artist string
	Title  string
	Raw    string
}

func (p ParsedTitle) HasArtist() bool {
	return p.Artist != ""
}

// DisplayName returns the "Artist - Title" form used for output filenames,
// or just the title when the artist is unknown.
func (p ParsedTitle) DisplayName() string {
	if p.Artist == "" {
		return p.Title
	}
	return p.Artist + " - " + p.Title
}

// separator splits a raw title on a literal token. Matchers are tried in
// order; the first one producing non-empty segments on both sides wins.
type separator struct {
	token string
}

func (s separator) split(raw string) (string, string, bool) {
	parts := strings.SplitN(raw, s.token, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	artist := strings.TrimSpace(parts[0])
	title := strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

var separators = []separator{
	{" - "},
	{" – "}, // en dash, common in uploader tracklists
	{" — "},
	{" | "},
}

var annotationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\((official[^)]*|lyric[^)]*|music video|audio|video|visuali[sz]er|remix|live|cover|hd|hq|4k|mv)\)`),
	regexp.MustCompile(`(?i)\s*\[(official[^\]]*|lyric[^\]]*|music video|audio|video|visuali[sz]er|remix|live|cover|hd|hq|4k|mv)\]`),
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Parse extracts an artist/title pair from a raw title string. It never fails:
// when no separator matches, the artist is left empty and the trimmed raw
// string becomes the title.
func Parse(raw string) ParsedTitle {
	for _, sep := range separators {
		artist, title, ok := sep.split(raw)
		if !ok {
			continue
		}
		return ParsedTitle{
			Artist: artist,
			Title:  stripAnnotations(title),
			Raw:    raw,
		}
	}

	log.Tracef("no separator pattern matched title %q", raw)
	return ParsedTitle{
		Title: strings.TrimSpace(raw),
		Raw:   raw,
	}
}

func stripAnnotations(title string) string {
	for _, pattern := range annotationPatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

// NormalizeKey folds a parsed title into the lookup key used for duplicate
// detection: lowercase, trimmed, internal whitespace collapsed.
func NormalizeKey(p ParsedTitle) string {
	artist := whitespaceRegex.ReplaceAllString(strings.TrimSpace(strings.ToLower(p.Artist)), " ")
	title := whitespaceRegex.ReplaceAllString(strings.TrimSpace(strings.ToLower(p.Title)), " ")
	return artist + "\x00" + title
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeFilename strips characters that are reserved on common filesystems.
func SafeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
