package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "HEATWAVE_SCANNER_CONFIG"
	dataDirEnv        = "HEATWAVE_DATA_DIR"
	indexPathEnv      = "HEATWAVE_INDEX_PATH"
	ollamaEndpointEnv = "OLLAMA_ENDPOINT"
	embedModelEnv     = "OLLAMA_EMBED_MODEL"
	chatModelEnv      = "OLLAMA_CHAT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Archive       ArchiveConfig      `yaml:"archive"`
	Index         IndexConfig        `yaml:"index"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Ollama        OllamaConfig       `yaml:"ollama"`
	Query         QueryConfig        `yaml:"query"`
	Notifications NotificationConfig `yaml:"notifications"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// ArchiveConfig describes where discussion documents and the sync log live.
type ArchiveConfig struct {
	DataDir      string `yaml:"dataDir"`
	SyncLogLimit int    `yaml:"syncLogLimit"`
}

// IndexConfig describes the SQLite chunk index and splitting parameters.
type IndexConfig struct {
	Path         string `yaml:"path"`
	Collection   string `yaml:"collection"`
	ChunkSize    int    `yaml:"chunkSize"`
	ChunkOverlap int    `yaml:"chunkOverlap"`
}

// SchedulerConfig defines how often the scraper should run.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// UnmarshalYAML accepts the interval as a Go duration string ("24h", "30m").
func (s *SchedulerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Timezone string `yaml:"timezone"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("parse scheduler interval: %w", err)
		}
		s.Interval = d
	}
	s.Timezone = raw.Timezone
	return nil
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OllamaConfig defines how to reach the local Ollama server.
type OllamaConfig struct {
	Endpoint   string `yaml:"endpoint"`
	EmbedModel string `yaml:"embedModel"`
	ChatModel  string `yaml:"chatModel"`
}

// QueryConfig tunes retrieval for the RAG question flow.
type QueryConfig struct {
	TopK     int     `yaml:"topK"`
	MinScore float64 `yaml:"minScore"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// HTTPConfig configures the health/metrics listener used in serve mode.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls log verbosity and output encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SourceConfig describes a single forecast page with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Archive.DataDir = v
	}

	if v := os.Getenv(indexPathEnv); v != "" {
		c.Index.Path = v
	}

	if v := os.Getenv(ollamaEndpointEnv); v != "" {
		c.Ollama.Endpoint = v
	}

	if v := os.Getenv(embedModelEnv); v != "" {
		c.Ollama.EmbedModel = v
	}

	if v := os.Getenv(chatModelEnv); v != "" {
		c.Ollama.ChatModel = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Archive.DataDir != "" {
		base.Archive.DataDir = override.Archive.DataDir
	}
	if override.Archive.SyncLogLimit > 0 {
		base.Archive.SyncLogLimit = override.Archive.SyncLogLimit
	}

	if override.Index.Path != "" {
		base.Index.Path = override.Index.Path
	}
	if override.Index.Collection != "" {
		base.Index.Collection = override.Index.Collection
	}
	if override.Index.ChunkSize > 0 {
		base.Index.ChunkSize = override.Index.ChunkSize
	}
	if override.Index.ChunkOverlap > 0 {
		base.Index.ChunkOverlap = override.Index.ChunkOverlap
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Ollama.Endpoint != "" {
		base.Ollama.Endpoint = override.Ollama.Endpoint
	}
	if override.Ollama.EmbedModel != "" {
		base.Ollama.EmbedModel = override.Ollama.EmbedModel
	}
	if override.Ollama.ChatModel != "" {
		base.Ollama.ChatModel = override.Ollama.ChatModel
	}

	if override.Query.TopK > 0 {
		base.Query.TopK = override.Query.TopK
	}
	if override.Query.MinScore > 0 {
		base.Query.MinScore = override.Query.MinScore
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Archive: ArchiveConfig{
			DataDir:      "data",
			SyncLogLimit: 50,
		},
		Index: IndexConfig{
			Path:         "heatwave_index.db",
			Collection:   "marine_heatwave_discussions",
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Ollama: OllamaConfig{
			Endpoint:   "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3",
		},
		Query: QueryConfig{TopK: 3, MinScore: 0.7},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Sources: []SourceConfig{
			{
				Name:    "noaa-psl",
				Scanner: "noaa-psl",
				URL:     "https://psl.noaa.gov/marine-heatwaves/#report",
			},
		},
	}
}
