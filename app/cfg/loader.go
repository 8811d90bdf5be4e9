package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/feedscribe.db" description:"Path to the SQLite database file"`

	// Roster configuration files
	FeedsFile string `long:"feeds-file" env:"FEEDS_FILE" default:"./config/feeds.yml" description:"YAML file listing feeds to poll"`
	UsersFile string `long:"users-file" env:"USERS_FILE" default:"./config/users.yml" description:"YAML file listing users, webhooks and interests"`
	LLMFile   string `long:"llm-file" env:"LLM_FILE" default:"./config/llm.yml" description:"YAML file with language model parameters"`

	// Pipeline scheduling
	PollInterval      int `long:"poll-interval" env:"POLL_INTERVAL" default:"300" description:"Feed polling interval in seconds"`
	SummarizeInterval int `long:"summarize-interval" env:"SUMMARIZE_INTERVAL" default:"0" description:"Summarization interval in seconds (0 = same as poll interval)"`
	DispatchInterval  int `long:"dispatch-interval" env:"DISPATCH_INTERVAL" default:"3600" description:"Webhook dispatch interval in seconds"`

	// Daily digest
	DigestEnabled bool   `long:"digest" env:"DIGEST_ENABLED" description:"Enable the daily per-user digest job"`
	DigestTime    string `long:"digest-time" env:"DIGEST_TIME" default:"22:00" description:"Local time (HH:MM) for the daily digest run"`

	// Dispatch behavior
	ChunkWordLimit int `long:"chunk-word-limit" env:"CHUNK_WORD_LIMIT" default:"1500" description:"Maximum words per webhook delivery chunk"`
	ChunkDelayMs   int `long:"chunk-delay-ms" env:"CHUNK_DELAY_MS" default:"500" description:"Delay between sequential chunk deliveries in milliseconds"`
	WebhookTimeout int `long:"webhook-timeout" env:"WEBHOOK_TIMEOUT" default:"10" description:"Webhook POST timeout in seconds"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Outbound HTTP
	HTTPTimeout int    `long:"http-timeout" env:"HTTP_TIMEOUT" default:"30" description:"Feed fetch and LLM call timeout in seconds"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"Feedscribe/1.0" description:"User agent string for HTTP requests"`

	// LLM credentials
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"API key for the OpenAI-compatible endpoint"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		FeedsFile:         raw.FeedsFile,
		UsersFile:         raw.UsersFile,
		LLMFile:           raw.LLMFile,
		PollInterval:      raw.PollInterval,
		SummarizeInterval: raw.SummarizeInterval,
		DispatchInterval:  raw.DispatchInterval,
		DigestEnabled:     raw.DigestEnabled,
		DigestTime:        raw.DigestTime,
		ChunkWordLimit:    raw.ChunkWordLimit,
		ChunkDelayMs:      raw.ChunkDelayMs,
		WebhookTimeout:    raw.WebhookTimeout,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		HTTPTimeout:       raw.HTTPTimeout,
		UserAgent:         raw.UserAgent,
		OpenAIAPIKey:      raw.OpenAIAPIKey,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if cfg.SummarizeInterval <= 0 {
		cfg.SummarizeInterval = cfg.PollInterval
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
