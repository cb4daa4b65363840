package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	LogLevel    string
	ServiceName string
	DatabaseURL string

	CorpusConfig CorpusConfig

	DropDirs         []string
	APIAddr          string
	TelemetryEnabled bool
}

// CorpusConfig holds the knobs of the bounded corpus itself.
type CorpusConfig struct {
	MaxEntries    int
	MaxTotalBytes int
	TTL           time.Duration
	ArchiveDir    string
	Durability    string
}

// corpusOverlay is the YAML shape of the optional CORPUS_CONFIG file.
// Durations are strings in time.ParseDuration syntax.
type corpusOverlay struct {
	MaxEntries    int      `yaml:"max_entries"`
	MaxTotalBytes int      `yaml:"max_bytes"`
	TTL           string   `yaml:"ttl"`
	ArchiveDir    string   `yaml:"archive_dir"`
	Durability    string   `yaml:"durability"`
	DropDirs      []string `yaml:"drop_dirs"`
	APIAddr       string   `yaml:"api_addr"`
}

func LoadConfig() *AppConfig {
	// use a temporary logger for now
	logger := zap.NewExample().Named("config")

	godotenv.Load()

	config := &AppConfig{
		LogLevel:    os.Getenv("LOG_LEVEL"),
		ServiceName: os.Getenv("SERVICE_NAME"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CorpusConfig: CorpusConfig{
			MaxEntries:    parseInt(os.Getenv("CORPUS_MAX_ENTRIES"), 10000),
			MaxTotalBytes: parseInt(os.Getenv("CORPUS_MAX_BYTES"), 100<<20),
			TTL:           parseDuration(os.Getenv("CORPUS_TTL"), 24*time.Hour),
			ArchiveDir:    os.Getenv("CORPUS_ARCHIVE_DIR"),
			Durability:    os.Getenv("CORPUS_DURABILITY"),
		},
		APIAddr:          os.Getenv("CORPUS_API_ADDR"),
		TelemetryEnabled: parseBool(os.Getenv("TELEMETRY_ENABLED"), false),
	}

	if dropDirs := os.Getenv("CORPUS_DROP_DIRS"); dropDirs != "" {
		for _, dir := range strings.Split(dropDirs, ",") {
			if dir = strings.TrimSpace(dir); dir != "" {
				config.DropDirs = append(config.DropDirs, dir)
			}
		}
	}

	// Optional YAML overlay; explicit env values above act as the base and
	// the file fills in or overrides corpus knobs for campaign presets.
	if path := os.Getenv("CORPUS_CONFIG"); path != "" {
		if err := config.applyYAML(path); err != nil {
			logger.Fatal("failed to load corpus config file", zap.String("path", path), zap.Error(err))
		}
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ServiceName == "" {
		config.ServiceName = "corpusd"
	}
	if config.CorpusConfig.ArchiveDir == "" {
		config.CorpusConfig.ArchiveDir = "/var/lib/cyberforge/corpus"
	}
	if config.CorpusConfig.Durability == "" {
		config.CorpusConfig.Durability = "best-effort"
	}
	if config.APIAddr == "" {
		config.APIAddr = ":8080"
	}

	if d := config.CorpusConfig.Durability; d != "best-effort" && d != "strict" {
		logger.Fatal("CORPUS_DURABILITY must be best-effort or strict", zap.String("value", d))
	}

	return config
}

func (c *AppConfig) applyYAML(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay corpusOverlay
	if err := yaml.Unmarshal(content, &overlay); err != nil {
		return err
	}
	if overlay.MaxEntries > 0 {
		c.CorpusConfig.MaxEntries = overlay.MaxEntries
	}
	if overlay.MaxTotalBytes > 0 {
		c.CorpusConfig.MaxTotalBytes = overlay.MaxTotalBytes
	}
	if overlay.TTL != "" {
		c.CorpusConfig.TTL = parseDuration(overlay.TTL, c.CorpusConfig.TTL)
	}
	if overlay.ArchiveDir != "" {
		c.CorpusConfig.ArchiveDir = overlay.ArchiveDir
	}
	if overlay.Durability != "" {
		c.CorpusConfig.Durability = overlay.Durability
	}
	if len(overlay.DropDirs) > 0 {
		c.DropDirs = overlay.DropDirs
	}
	if overlay.APIAddr != "" {
		c.APIAddr = overlay.APIAddr
	}
	return nil
}

func parseDuration(val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseInt(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func parseBool(val string, defaultVal bool) bool {
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
