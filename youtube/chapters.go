package youtube

import (
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Chapter is one marked segment of a mix. Start is inclusive, End exclusive,
// both in seconds. Chapters are contiguous and non-overlapping in source
// order; the last chapter's End is clamped to the mix duration.
type Chapter struct {
	Index    int
	RawTitle string
	Start    float64
	End      float64
}

func (c Chapter) DurationSeconds() float64 {
	return c.End - c.Start
}

// ChaptersFromMetadata builds the chapter list for a video. Embedded chapters
// win; videos without them fall back to timestamp lines in the description,
// which is how most mix uploads carry their tracklist.
func ChaptersFromMetadata(meta *videoMetadata) []Chapter {
	if len(meta.Chapters) > 0 {
		chapters := make([]Chapter, 0, len(meta.Chapters))
		for _, c := range meta.Chapters {
			chapters = append(chapters, Chapter{
				RawTitle: c.Title,
				Start:    c.StartTime,
				End:      c.EndTime,
			})
		}
		return clampChapters(chapters, meta.Duration)
	}

	parsed := ParseDescriptionChapters(meta.Description, meta.Duration)
	if len(parsed) > 0 {
		log.WithFields(log.Fields{"module": "youtube"}).
			Debugf("using %d description timestamps as chapters for %s", len(parsed), meta.ID)
	}
	return parsed
}

// matches "1:23:45 Title", "03:45 - Title", "3:45 – Title"
var timestampLineRegex = regexp.MustCompile(`^\s*(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s*[-–—]?\s*(\S.*)$`)

// ParseDescriptionChapters extracts a tracklist from timestamp lines in a
// video description. Each chapter runs until the next timestamp; the last
// runs until the end of the mix. Fewer than two timestamp lines is not
// treated as a tracklist.
func ParseDescriptionChapters(description string, duration float64) []Chapter {
	var chapters []Chapter

	for _, line := range strings.Split(description, "\n") {
		m := timestampLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		start := float64(hours*3600 + minutes*60 + seconds)

		// out-of-order timestamps mean this is not a tracklist line
		if len(chapters) > 0 && start <= chapters[len(chapters)-1].Start {
			continue
		}

		chapters = append(chapters, Chapter{
			RawTitle: strings.TrimSpace(m[4]),
			Start:    start,
		})
	}

	if len(chapters) < 2 {
		return nil
	}

	for i := range chapters {
		if i < len(chapters)-1 {
			chapters[i].End = chapters[i+1].Start
		} else {
			chapters[i].End = duration
		}
	}

	return clampChapters(chapters, duration)
}

// clampChapters bounds ends to the mix duration, drops degenerate ranges and
// reassigns indexes to the surviving sequence order.
func clampChapters(chapters []Chapter, duration float64) []Chapter {
	out := make([]Chapter, 0, len(chapters))
	for _, c := range chapters {
		if duration > 0 && c.End > duration {
			c.End = duration
		}
		if c.Start >= c.End {
			log.WithFields(log.Fields{"module": "youtube"}).
				Warnf("dropping degenerate chapter %q [%f, %f)", c.RawTitle, c.Start, c.End)
			continue
		}
		c.Index = len(out)
		out = append(out, c)
	}
	return out
}
