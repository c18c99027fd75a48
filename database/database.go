package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"mixsplit/config"
)

type Database struct {
	db *sql.DB
}

// JobRecord is the persisted summary of one mix-to-tracks run.
type JobRecord struct {
	ID          string
	URL         string
	OutputDir   string
	Status      string
	Reason      string
	Succeeded   int
	Skipped     int
	CreatedAt   time.Time
	CompletedAt time.Time
}

// TrackRecord is one produced output track.
type TrackRecord struct {
	ID           int64
	JobID        string
	Artist       string
	Title        string
	Origin       string
	FilePath     string
	StartSeconds float64
	EndSeconds   float64
	CreatedAt    time.Time
}

// New opens the history database. Path comes from DB_PATH, defaulting to
// mixsplit.db under the scratch directory.
func New() (*Database, error) {
	dbPath := config.Config.Options.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.Config.Splitter.ScratchDir, "mixsplit.db")
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			succeeded INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			origin TEXT NOT NULL,
			file_path TEXT NOT NULL,
			start_seconds REAL NOT NULL DEFAULT 0,
			end_seconds REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_job_id ON tracks(job_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// RecordJob upserts a job's terminal summary.
func (d *Database) RecordJob(job JobRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO jobs (id, url, output_dir, status, reason, succeeded, skipped, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   reason = excluded.reason,
		   succeeded = excluded.succeeded,
		   skipped = excluded.skipped,
		   completed_at = excluded.completed_at`,
		job.ID, job.URL, job.OutputDir, job.Status, job.Reason,
		job.Succeeded, job.Skipped, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// RecordTrack inserts one produced track.
func (d *Database) RecordTrack(track TrackRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO tracks (job_id, artist, title, origin, file_path, start_seconds, end_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		track.JobID, track.Artist, track.Title, track.Origin,
		track.FilePath, track.StartSeconds, track.EndSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to record track: %w", err)
	}
	return nil
}

// GetRecentJobs returns the most recent job summaries.
func (d *Database) GetRecentJobs(limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT id, url, output_dir, status, reason, succeeded, skipped, created_at,
		        COALESCE(completed_at, '')
		 FROM jobs
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var r JobRecord
		var createdAt, completedAt string
		if err := rows.Scan(&r.ID, &r.URL, &r.OutputDir, &r.Status, &r.Reason,
			&r.Succeeded, &r.Skipped, &createdAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		r.CreatedAt = parseStoredTime(createdAt)
		r.CompletedAt = parseStoredTime(completedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetJobTracks returns all tracks produced by a job.
func (d *Database) GetJobTracks(jobID string) ([]TrackRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, job_id, artist, title, origin, file_path, start_seconds, end_seconds, created_at
		 FROM tracks
		 WHERE job_id = ?
		 ORDER BY id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var records []TrackRecord
	for rows.Next() {
		var r TrackRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.JobID, &r.Artist, &r.Title, &r.Origin,
			&r.FilePath, &r.StartSeconds, &r.EndSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		r.CreatedAt = parseStoredTime(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

func parseStoredTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse stored timestamp %q with all known formats", value)
	return time.Time{}
}
