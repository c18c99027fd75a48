package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type ConfigStruct struct {
	Youtube  YoutubeConfig
	Spotify  SpotifyConfig
	Redis    RedisConfig
	Splitter SplitterConfig
	Options  Options
}

type YoutubeConfig struct {
	APIKey        string
	SearchLimit   int
	FetchTimeoutS int
	YtdlpRetries  int
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Enabled      bool
}

type RedisConfig struct {
	Addr           string
	Enabled        bool
	JobsChannel    string
	ResultsChannel string
}

type SplitterConfig struct {
	OutputDir      string
	ScratchDir     string
	MatchThreshold float64
	FfmpegTimeoutS int
}

type Options struct {
	Port     string
	LogLevel string
	DBPath   string
}

func (r *RedisConfig) IsEnabled() bool {
	return r.Enabled && r.Addr != ""
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Youtube: YoutubeConfig{
			APIKey:        os.Getenv("YOUTUBE_API_KEY"),
			SearchLimit:   getSearchLimit(),
			FetchTimeoutS: getFetchTimeout(),
			YtdlpRetries:  getYtdlpRetries(),
		},
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			Enabled:      os.Getenv("SPOTIFY_ENABLED") == "true",
		},
		Redis: RedisConfig{
			Addr:           os.Getenv("REDIS_ADDR"),
			Enabled:        os.Getenv("REDIS_ENABLED") == "true",
			JobsChannel:    getChannel("REDIS_JOBS_CHANNEL", "mixsplit:jobs"),
			ResultsChannel: getChannel("REDIS_RESULTS_CHANNEL", "mixsplit:results"),
		},
		Splitter: SplitterConfig{
			OutputDir:      getOutputDir(),
			ScratchDir:     getScratchDir(),
			MatchThreshold: getMatchThreshold(),
			FfmpegTimeoutS: getFfmpegTimeout(),
		},
		Options: Options{
			Port:     os.Getenv("PORT"),
			LogLevel: os.Getenv("LOG_LEVEL"),
			DBPath:   os.Getenv("DB_PATH"),
		},
	}

	Config = config
}

func getOutputDir() string {
	dir := os.Getenv("OUTPUT_DIR")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "output"
		}
		return filepath.Join(cwd, "output")
	}
	return dir
}

func getScratchDir() string {
	dir := os.Getenv("SCRATCH_DIR")
	if dir == "" {
		return filepath.Join(os.TempDir(), "mixsplit")
	}
	return dir
}

// getMatchThreshold returns the fraction of query tokens that must appear in a
// search result's title before it is accepted as the original track.
func getMatchThreshold() float64 {
	thresholdStr := os.Getenv("MATCH_THRESHOLD")
	if thresholdStr == "" {
		return 1.0
	}
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil || threshold <= 0 {
		return 1.0
	}
	if threshold > 1.0 {
		return 1.0
	}
	return threshold
}

func getFfmpegTimeout() int {
	timeoutStr := os.Getenv("FFMPEG_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 120
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 120
	}
	return timeout
}

func getFetchTimeout() int {
	timeoutStr := os.Getenv("FETCH_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 300
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 300
	}
	return timeout
}

func getSearchLimit() int {
	limitStr := os.Getenv("YOUTUBE_SEARCH_LIMIT")
	if limitStr == "" {
		return 10
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 10
	}
	if limit > 50 {
		return 50 // YouTube API max per page
	}
	return limit
}

func getYtdlpRetries() int {
	retriesStr := os.Getenv("YTDLP_RETRIES")
	if retriesStr == "" {
		return 3
	}
	retries, err := strconv.Atoi(retriesStr)
	if err != nil || retries <= 0 {
		return 3
	}
	if retries > 10 {
		return 10
	}
	return retries
}

func getChannel(envVar string, fallback string) string {
	channel := os.Getenv(envVar)
	if channel == "" {
		return fallback
	}
	return channel
}
