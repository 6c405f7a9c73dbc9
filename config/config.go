package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

const (
	minProviderTimeout = 5 * time.Second
	maxProviderTimeout = 15 * time.Second
)

type Config struct {
	Server struct {
		Port     string `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	Configuration struct {
		FetchStrategy              string   `envconfig:"FETCH_STRATEGY" default:"parallel"`
		ProviderOrder              []string `envconfig:"PROVIDER_ORDER" default:"ttmldb,lrclib,netease,kugou,lyricsovh"`
		ProviderTimeoutSecs        int      `envconfig:"PROVIDER_TIMEOUT_SECS" default:"10"`
		CacheMaxEntries            int      `envconfig:"CACHE_MAX_ENTRIES" default:"500"`
		CacheMaxBytes              int      `envconfig:"CACHE_MAX_BYTES" default:"33554432"`
		LyricsCacheTTLInSeconds    int      `envconfig:"LYRICS_CACHE_TTL_IN_SECONDS" default:"86400"`
		PreloadDelayMs             int      `envconfig:"PRELOAD_DELAY_MS" default:"500"`
		SyncToleranceSecs          float64  `envconfig:"SYNC_TOLERANCE_SECS" default:"3.5"`
		SyncPollIntervalMs         int      `envconfig:"SYNC_POLL_INTERVAL_MS" default:"50"`
		RateLimitPerSecond         int      `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit        int      `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		CachedRateLimitPerSecond   int      `envconfig:"CACHED_RATE_LIMIT_PER_SECOND" default:"10"`
		CachedRateLimitBurstLimit  int      `envconfig:"CACHED_RATE_LIMIT_BURST_LIMIT" default:"20"`
		APIKey                     string   `envconfig:"API_KEY" default:""`
		APIKeyRequired             bool     `envconfig:"API_KEY_REQUIRED" default:"false"`
		MinSimilarityScore         float64  `envconfig:"MIN_SIMILARITY_SCORE" default:"0.6"`
		DurationMatchDeltaMs       int      `envconfig:"DURATION_MATCH_DELTA_MS" default:"2000"`      // reject candidates outside this delta
		CircuitBreakerThreshold    int      `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`       // consecutive failures before the circuit opens
		CircuitBreakerCooldownSecs int      `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // seconds before a retry is allowed
		StatsDBPath                string   `envconfig:"STATS_DB_PATH" default:"stats.db"`
		StatsSaveIntervalSecs      int      `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`
	}

	Providers struct {
		TTMLDBMirrors          []string `envconfig:"TTMLDB_MIRRORS" default:""`
		TTMLDBPlatform         string   `envconfig:"TTMLDB_PLATFORM" default:"ncm"`
		TTMLDBIndexRefreshMins int      `envconfig:"TTMLDB_INDEX_REFRESH_MINS" default:"60"`
		LRCLIBBaseURL          string   `envconfig:"LRCLIB_BASE_URL" default:"https://lrclib.net"`
		NeteaseBaseURL         string   `envconfig:"NETEASE_BASE_URL" default:"https://music.163.com"`
		NeteaseCookie          string   `envconfig:"NETEASE_COOKIE" default:""`
		KugouSongSearchURL     string   `envconfig:"KUGOU_SONG_SEARCH_URL" default:"http://msearchcdn.kugou.com"`
		KugouLyricsURL         string   `envconfig:"KUGOU_LYRICS_URL" default:"https://krcs.kugou.com"`
		LyricsOVHBaseURL       string   `envconfig:"LYRICSOVH_BASE_URL" default:"https://api.lyrics.ovh"`
	}

	// Alerting on provider outages; each channel is enabled by its first field
	Notifier struct {
		SMTPHost          string `envconfig:"NOTIFIER_SMTP_HOST" default:""`
		SMTPPort          string `envconfig:"NOTIFIER_SMTP_PORT" default:"587"`
		SMTPUsername      string `envconfig:"NOTIFIER_SMTP_USERNAME" default:""`
		SMTPPassword      string `envconfig:"NOTIFIER_SMTP_PASSWORD" default:""`
		FromEmail         string `envconfig:"NOTIFIER_FROM_EMAIL" default:""`
		ToEmail           string `envconfig:"NOTIFIER_TO_EMAIL" default:""`
		TelegramBotToken  string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID    string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
		NtfyTopic         string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer        string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		AlertCooldownMins int    `envconfig:"NOTIFIER_ALERT_COOLDOWN_MINS" default:"15"`
	}
}

// ProviderTimeout returns the per-provider timeout clamped to 5-15s
func (c Config) ProviderTimeout() time.Duration {
	d := time.Duration(c.Configuration.ProviderTimeoutSecs) * time.Second
	if d < minProviderTimeout {
		return minProviderTimeout
	}
	if d > maxProviderTimeout {
		return maxProviderTimeout
	}
	return d
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

// Load re-reads the environment, replacing the configuration returned by Get
func Load() (Config, error) {
	c, err := load()
	if err != nil {
		return c, err
	}
	conf = c
	return c, nil
}

func Get() Config {
	return conf
}
