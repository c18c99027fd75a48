package resolver

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"mixsplit/titles"
	"mixsplit/youtube"
)

func testLogger() *log.Entry {
	return log.WithFields(log.Fields{"module": "resolver"})
}

func TestTitleMatches(t *testing.T) {
	pt := titles.ParsedTitle{Artist: "Daft Punk", Title: "One More Time"}

	tests := []struct {
		name      string
		candidate string
		threshold float64
		want      bool
	}{
		{"exact", "Daft Punk - One More Time", 1.0, true},
		{"case_insensitive", "daft punk - one more time (official video)", 1.0, true},
		{"extra_words_ok", "Daft Punk - One More Time [HQ Official Audio]", 1.0, true},
		{"missing_artist", "One More Time (Cover)", 1.0, false},
		{"missing_title_word", "Daft Punk - One Time", 1.0, false},
		{"partial_below_threshold", "Daft Punk Interview", 1.0, false},
		{"partial_above_threshold", "Daft Punk - One More", 0.8, true},
		{"unrelated", "Completely Different Song", 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleMatches(tt.candidate, pt, tt.threshold); got != tt.want {
				t.Errorf("TitleMatches(%q, threshold=%v) = %v; want %v",
					tt.candidate, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestTitleMatchesEmptyTokens(t *testing.T) {
	if TitleMatches("anything", titles.ParsedTitle{}, 1.0) {
		t.Error("empty parsed title should never match")
	}
}

func TestResolveWithoutArtist(t *testing.T) {
	r := &Resolver{
		Search: func(query string) []youtube.VideoResponse {
			t.Errorf("search should not run for artistless titles, got query %q", query)
			return nil
		},
		Threshold: 1.0,
	}
	r.logger = testLogger()

	got := r.Resolve(titles.ParsedTitle{Title: "Interlude"})
	if got.Origin != OriginExtracted {
		t.Errorf("origin = %q; want extracted", got.Origin)
	}
}

func TestResolveMatch(t *testing.T) {
	r := &Resolver{
		Search: func(query string) []youtube.VideoResponse {
			return []youtube.VideoResponse{
				{Title: "Kavinsky - Nightcall (Live at Coachella)", VideoID: "live1"},
				{Title: "Kavinsky - Nightcall (Official Audio)", VideoID: "orig1"},
			}
		},
		Threshold: 1.0,
	}
	r.logger = testLogger()

	got := r.Resolve(titles.ParsedTitle{Artist: "Kavinsky", Title: "Nightcall"})
	if got.Origin != OriginOriginal {
		t.Fatalf("origin = %q; want original", got.Origin)
	}
	if got.VideoID != "live1" {
		// first acceptable result wins; both candidates contain all tokens
		t.Errorf("VideoID = %q; want first matching result", got.VideoID)
	}
}

func TestResolveNoAcceptableResult(t *testing.T) {
	r := &Resolver{
		Search: func(query string) []youtube.VideoResponse {
			return []youtube.VideoResponse{
				{Title: "Totally Unrelated Video", VideoID: "x"},
			}
		},
		Threshold: 1.0,
	}
	r.logger = testLogger()

	got := r.Resolve(titles.ParsedTitle{Artist: "Kavinsky", Title: "Nightcall"})
	if got.Origin != OriginExtracted {
		t.Errorf("origin = %q; want extracted fallback", got.Origin)
	}
	if got.VideoID != "" {
		t.Errorf("VideoID = %q; want empty for extracted track", got.VideoID)
	}
}

func TestResolveEmptySearchResults(t *testing.T) {
	r := &Resolver{
		Search:    func(query string) []youtube.VideoResponse { return nil },
		Threshold: 1.0,
	}
	r.logger = testLogger()

	got := r.Resolve(titles.ParsedTitle{Artist: "A", Title: "B"})
	if got.Origin != OriginExtracted {
		t.Errorf("origin = %q; want extracted fallback", got.Origin)
	}
}
