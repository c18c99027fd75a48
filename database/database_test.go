package database

import (
	"path/filepath"
	"testing"

	"mixsplit/config"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	config.NewConfig()

	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRecordAndGetJob(t *testing.T) {
	d := newTestDB(t)

	job := JobRecord{
		ID:        "job-1",
		URL:       "https://www.youtube.com/watch?v=abc",
		OutputDir: "/music/out",
		Status:    "done",
		Succeeded: 3,
		Skipped:   1,
	}
	if err := d.RecordJob(job); err != nil {
		t.Fatalf("RecordJob() error = %v", err)
	}

	jobs, err := d.GetRecentJobs(10)
	if err != nil {
		t.Fatalf("GetRecentJobs() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs; want 1", len(jobs))
	}
	got := jobs[0]
	if got.ID != "job-1" || got.Status != "done" || got.Succeeded != 3 || got.Skipped != 1 {
		t.Errorf("unexpected job record: %+v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Error("completed_at not set")
	}
}

func TestRecordJobUpsert(t *testing.T) {
	d := newTestDB(t)

	job := JobRecord{ID: "job-1", URL: "u", OutputDir: "o", Status: "running"}
	if err := d.RecordJob(job); err != nil {
		t.Fatal(err)
	}
	job.Status = "failed"
	job.Reason = "mix unreachable"
	if err := d.RecordJob(job); err != nil {
		t.Fatal(err)
	}

	jobs, err := d.GetRecentJobs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("upsert created %d rows; want 1", len(jobs))
	}
	if jobs[0].Status != "failed" || jobs[0].Reason != "mix unreachable" {
		t.Errorf("upsert did not update fields: %+v", jobs[0])
	}
}

func TestRecordAndGetTracks(t *testing.T) {
	d := newTestDB(t)

	tracks := []TrackRecord{
		{JobID: "job-1", Artist: "X", Title: "Y", Origin: "extracted", FilePath: "/out/X - Y.mp3", StartSeconds: 0, EndSeconds: 30},
		{JobID: "job-1", Artist: "X", Title: "Y", Origin: "original", FilePath: "/out/X - Y (2).mp3"},
		{JobID: "job-2", Title: "Z", Origin: "extracted", FilePath: "/out/Z.mp3", StartSeconds: 65, EndSeconds: 90},
	}
	for _, track := range tracks {
		if err := d.RecordTrack(track); err != nil {
			t.Fatalf("RecordTrack() error = %v", err)
		}
	}

	got, err := d.GetJobTracks("job-1")
	if err != nil {
		t.Fatalf("GetJobTracks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tracks for job-1; want 2", len(got))
	}
	if got[0].Origin != "extracted" || got[1].Origin != "original" {
		t.Errorf("tracks out of insertion order: %+v", got)
	}

	other, err := d.GetJobTracks("job-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 || other[0].Artist != "" {
		t.Errorf("unexpected job-2 tracks: %+v", other)
	}
}

func TestGetRecentJobsEmptyDB(t *testing.T) {
	d := newTestDB(t)

	jobs, err := d.GetRecentJobs(5)
	if err != nil {
		t.Fatalf("GetRecentJobs() error = %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("got %d jobs from empty db; want 0", len(jobs))
	}
}
