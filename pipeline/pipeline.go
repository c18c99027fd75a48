package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sentry "github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"mixsplit/config"
	"mixsplit/database"
	"mixsplit/registry"
	"mixsplit/resolver"
	"mixsplit/splitter"
	"mixsplit/spotify"
	"mixsplit/tagger"
	"mixsplit/titles"
	"mixsplit/youtube"
)

// MixJob is one requested mix-to-tracks run. Immutable once created.
type MixJob struct {
	URL       string `json:"url"`
	OutputDir string `json:"output_folder,omitempty"`
	ID        string `json:"job_id,omitempty"`
}

type JobStatus string

const (
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

// OutputTrack is one finished, tagged audio file.
type OutputTrack struct {
	FilePath string
	Parsed   titles.ParsedTitle
	Origin   resolver.Origin
	Chapter  youtube.Chapter
}

// JobResult is the terminal summary of a run. A job with per-chapter
// failures still reports JobDone with a skipped tally; JobFailed means
// nothing was produced.
type JobResult struct {
	JobID     string        `json:"job_id"`
	Status    JobStatus     `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	OutputDir string        `json:"output_folder"`
	Succeeded int           `json:"succeeded_count"`
	Skipped   int           `json:"skipped_count"`
	Tracks    []OutputTrack `json:"-"`
}

// chapterOutcome is the tri-state result of processing one chapter. Fatal
// conditions never arise per chapter; they abort the job before the loop.
type chapterOutcome struct {
	track      *OutputTrack
	skipReason string
}

// Pipeline drives one full mix-to-tracks run. Collaborators are plain
// function fields so tests can substitute them; New wires the real ones.
type Pipeline struct {
	FetchMix     func(ctx context.Context, url string, scratchDir string) (*youtube.Mix, error)
	Resolve      func(pt titles.ParsedTitle) resolver.ResolvedTrack
	Download     func(ctx context.Context, videoID string, dest string) (string, error)
	Extract      func(audioPath string, start, end float64, dest string) error
	Crop         func(thumbnailPath string) (string, error)
	Embed        func(audioPath string, pt titles.ParsedTitle, thumbnailPath, dest string) error
	Canonicalize func(pt titles.ParsedTitle) titles.ParsedTitle
	Notify       func(result JobResult)
	DB           *database.Database

	logger *log.Entry
}

func New(db *database.Database) *Pipeline {
	p := &Pipeline{
		FetchMix: youtube.FetchMix,
		Resolve:  resolver.New().Resolve,
		Download: youtube.DownloadByID,
		Extract:  splitter.Extract,
		Crop:     tagger.CropThumbnail,
		Embed:    tagger.Embed,
		DB:       db,
		logger:   log.WithFields(log.Fields{"module": "pipeline"}),
	}
	if config.Config.Spotify.Enabled {
		p.Canonicalize = spotify.Canonicalize
	}
	return p
}

// ProcessJob runs one job end to end and returns its terminal result. It is
// the sole entry point, identical for message-driven and direct invocation.
func (p *Pipeline) ProcessJob(ctx context.Context, job MixJob) JobResult {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	outputDir := job.OutputDir
	if outputDir == "" {
		outputDir = config.Config.Splitter.OutputDir
	}

	logger := p.logger.WithFields(log.Fields{"job_id": job.ID, "url": job.URL})
	logger.Info("starting job")

	span := sentry.StartSpan(ctx, "pipeline.process_job")
	span.Description = "Process mix job"
	span.SetTag("job_id", job.ID)
	defer span.Finish()

	result := JobResult{JobID: job.ID, OutputDir: outputDir}

	scratchDir, err := p.makeScratchDir(job.ID)
	if err != nil {
		return p.finish(job, p.fail(result, fmt.Sprintf("creating scratch directory: %v", err)), span)
	}
	defer os.RemoveAll(scratchDir)

	mix, err := p.FetchMix(ctx, job.URL, scratchDir)
	if err != nil {
		logger.Errorf("mix fetch failed: %v", err)
		sentry.CaptureException(err)
		return p.finish(job, p.fail(result, fmt.Sprintf("fetching mix: %v", err)), span)
	}

	if len(mix.Chapters) == 0 {
		return p.finish(job, p.fail(result, "mix has no chapters"), span)
	}

	// one square crop per mix, shared by every track
	thumbnailPath := ""
	if mix.ThumbnailPath != "" {
		thumbnailPath, err = p.Crop(mix.ThumbnailPath)
		if err != nil {
			logger.Warnf("thumbnail crop failed, emitting tag-only tracks: %v", err)
			thumbnailPath = ""
		}
	}

	reg := registry.New()
	reg.Seed(outputDir)

	for _, chapter := range mix.Chapters {
		outcome := p.processChapter(ctx, mix, chapter, reg, thumbnailPath, scratchDir, outputDir)
		if outcome.track != nil {
			result.Tracks = append(result.Tracks, *outcome.track)
			result.Succeeded++
			p.recordTrack(job.ID, *outcome.track)
			continue
		}

		logger.Warnf("skipping chapter %d (%q): %s", chapter.Index, chapter.RawTitle, outcome.skipReason)
		result.Skipped++
	}

	if result.Succeeded == 0 {
		return p.finish(job, p.fail(result, "every chapter failed"), span)
	}

	result.Status = JobDone
	logger.Infof("job done: %d succeeded, %d skipped", result.Succeeded, result.Skipped)
	span.Status = sentry.SpanStatusOK
	return p.finish(job, result, span)
}

func (p *Pipeline) processChapter(ctx context.Context, mix *youtube.Mix, chapter youtube.Chapter,
	reg *registry.Registry, thumbnailPath, scratchDir, outputDir string) chapterOutcome {

	pt := titles.Parse(chapter.RawTitle)
	if p.Canonicalize != nil {
		pt = p.Canonicalize(pt)
	}

	resolved := p.Resolve(pt)

	segmentPath := filepath.Join(scratchDir, fmt.Sprintf("track-%03d.mp3", chapter.Index))

	if resolved.Origin == resolver.OriginOriginal {
		if _, err := p.Download(ctx, resolved.VideoID, segmentPath); err != nil {
			// standalone download is best-effort enrichment; cut from the mix instead
			p.logger.Warnf("original download failed for %q, falling back to extraction: %v",
				pt.DisplayName(), err)
			resolved.Origin = resolver.OriginExtracted
		}
	}

	if resolved.Origin == resolver.OriginExtracted {
		if err := p.Extract(mix.AudioPath, chapter.Start, chapter.End, segmentPath); err != nil {
			return chapterOutcome{skipReason: fmt.Sprintf("extraction failed: %v", err)}
		}
	}

	name := reg.Reserve(pt)
	destPath := filepath.Join(outputDir, name+".mp3")

	if err := p.Embed(segmentPath, pt, thumbnailPath, destPath); err != nil {
		return chapterOutcome{skipReason: fmt.Sprintf("embedding failed: %v", err)}
	}

	return chapterOutcome{track: &OutputTrack{
		FilePath: destPath,
		Parsed:   pt,
		Origin:   resolved.Origin,
		Chapter:  chapter,
	}}
}

func (p *Pipeline) makeScratchDir(jobID string) (string, error) {
	root := config.Config.Splitter.ScratchDir
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(root, "job-"+jobID+"-")
}

func (p *Pipeline) fail(result JobResult, reason string) JobResult {
	result.Status = JobFailed
	result.Reason = reason
	result.Succeeded = 0
	result.Tracks = nil
	return result
}

// finish persists the terminal result and fires the completion notification.
func (p *Pipeline) finish(job MixJob, result JobResult, span *sentry.Span) JobResult {
	if result.Status == JobFailed {
		span.Status = sentry.SpanStatusInternalError
	}

	if p.DB != nil {
		err := p.DB.RecordJob(database.JobRecord{
			ID:        job.ID,
			URL:       job.URL,
			OutputDir: result.OutputDir,
			Status:    string(result.Status),
			Reason:    result.Reason,
			Succeeded: result.Succeeded,
			Skipped:   result.Skipped,
		})
		if err != nil {
			p.logger.Warnf("recording job history failed: %v", err)
		}
	}

	if p.Notify != nil {
		p.Notify(result)
	}
	return result
}

func (p *Pipeline) recordTrack(jobID string, track OutputTrack) {
	if p.DB == nil {
		return
	}
	err := p.DB.RecordTrack(database.TrackRecord{
		JobID:        jobID,
		Artist:       track.Parsed.Artist,
		Title:        track.Parsed.Title,
		Origin:       string(track.Origin),
		FilePath:     track.FilePath,
		StartSeconds: track.Chapter.Start,
		EndSeconds:   track.Chapter.End,
	})
	if err != nil {
		p.logger.Warnf("recording track history failed: %v", err)
	}
}
