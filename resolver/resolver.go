package resolver

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"mixsplit/config"
	"mixsplit/titles"
	"mixsplit/youtube"
)

// Origin records which sourcing path produced a track's audio.
type Origin string

const (
	// OriginOriginal means a standalone high-quality upload was found.
	OriginOriginal Origin = "original"
	// OriginExtracted means the segment is cut from the mix itself.
	OriginExtracted Origin = "extracted"
)

// ResolvedTrack is the sourcing decision for one chapter. VideoID is set only
// for OriginOriginal and identifies the standalone upload to download.
type ResolvedTrack struct {
	Parsed  titles.ParsedTitle
	Origin  Origin
	VideoID string
}

// Searcher finds candidate standalone uploads for a query string.
type Searcher func(query string) []youtube.VideoResponse

type Resolver struct {
	Search    Searcher
	Threshold float64
	logger    *log.Entry
}

func New() *Resolver {
	return &Resolver{
		Search:    youtube.Search,
		Threshold: config.Config.Splitter.MatchThreshold,
		logger:    log.WithFields(log.Fields{"module": "resolver"}),
	}
}

// Resolve decides whether a chapter's track can be sourced as a standalone
// upload or must be cut from the mix. Lookup failures are downgraded to the
// extracted fallback, never propagated.
func (r *Resolver) Resolve(pt titles.ParsedTitle) ResolvedTrack {
	if !pt.HasArtist() {
		r.logger.Debugf("no artist for %q, extracting from mix", pt.Title)
		return ResolvedTrack{Parsed: pt, Origin: OriginExtracted}
	}

	query := pt.Artist + " " + pt.Title
	results := r.Search(query)

	for _, result := range results {
		if TitleMatches(result.Title, pt, r.Threshold) {
			r.logger.Debugf("matched %q to standalone upload %s (%q)", query, result.VideoID, result.Title)
			return ResolvedTrack{
				Parsed:  pt,
				Origin:  OriginOriginal,
				VideoID: result.VideoID,
			}
		}
	}

	r.logger.Debugf("no acceptable result for %q, extracting from mix", query)
	return ResolvedTrack{Parsed: pt, Origin: OriginExtracted}
}

// TitleMatches reports whether enough artist and title tokens appear in a
// candidate result's title. threshold is the required fraction of matching
// tokens; 1.0 demands every token.
func TitleMatches(candidateTitle string, pt titles.ParsedTitle, threshold float64) bool {
	candidate := strings.ToLower(candidateTitle)

	tokens := append(tokenize(pt.Artist), tokenize(pt.Title)...)
	if len(tokens) == 0 {
		return false
	}

	matched := 0
	for _, token := range tokens {
		if strings.Contains(candidate, token) {
			matched++
		}
	}

	return float64(matched)/float64(len(tokens)) >= threshold
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
