package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	appConfig "mixsplit/config"
	"mixsplit/database"
	"mixsplit/messaging"
	"mixsplit/pipeline"
	"mixsplit/sentry"
	"mixsplit/splitter"
	"mixsplit/spotify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	setupLogging()
	sentry.Init()

	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func setupLogging() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"module", "function", "job_id"},
	})

	level, err := log.ParseLevel(appConfig.Config.Options.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !splitter.CheckFFmpeg() {
		log.Fatal("ffmpeg is not available on the system")
	}

	db, err := database.New()
	if err != nil {
		return err
	}
	defer db.Close()

	if appConfig.Config.Spotify.Enabled {
		if err := spotify.NewSpotifyClient(); err != nil {
			log.Warnf("Spotify client unavailable, skipping canonicalization: %v", err)
		}
	}

	pipe := pipeline.New(db)

	if appConfig.Config.Redis.IsEnabled() {
		publisher := messaging.NewPublisher()
		defer publisher.Close()
		pipe.Notify = func(result pipeline.JobResult) {
			publisher.PublishResult(ctx, result)
		}
	}

	// jobs run one at a time; both the HTTP surface and the Redis trigger
	// feed this queue
	jobs := make(chan pipeline.MixJob, 32)
	go func() {
		for job := range jobs {
			result := pipe.ProcessJob(ctx, job)
			log.WithFields(log.Fields{"job_id": result.JobID}).
				Infof("job finished: status=%s succeeded=%d skipped=%d",
					result.Status, result.Succeeded, result.Skipped)
		}
	}()

	if appConfig.Config.Redis.IsEnabled() {
		subscriber := messaging.NewSubscriber()
		defer subscriber.Close()
		go subscriber.Listen(ctx, jobs)
	}

	router := gin.Default()
	router.Use(sentry.GetSentryGin())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.POST("/jobs", func(c *gin.Context) {
		var job pipeline.MixJob
		if err := c.ShouldBindJSON(&job); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job payload"})
			return
		}
		if job.URL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}
		if job.ID == "" {
			job.ID = uuid.NewString()
		}

		select {
		case jobs <- job:
			c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue is full"})
		}
	})

	router.GET("/jobs/recent", func(c *gin.Context) {
		records, err := db.GetRecentJobs(20)
		if err != nil {
			log.Errorf("listing recent jobs: %v", err)
			sentry.ReportError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": records})
	})

	router.GET("/jobs/:jobId/tracks", func(c *gin.Context) {
		tracks, err := db.GetJobTracks(c.Param("jobId"))
		if err != nil {
			log.Errorf("listing job tracks: %v", err)
			sentry.ReportError(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tracks"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tracks": tracks})
	})

	port := appConfig.Config.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Infof("Starting server on :%s", port)
	return http.ListenAndServe(":"+port, router)
}
