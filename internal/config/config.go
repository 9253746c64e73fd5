package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/perryops/periaudit/internal/guideline"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Remote hosted gateway (report structuring, action generation)
	RemoteBaseURL string
	RemoteAPIKey  string
	RemoteModel   string
	RemoteTimeout time.Duration

	// Local gateway (compliance auditing)
	OllamaURL        string
	OllamaModel      string
	OllamaTimeout    time.Duration
	OllamaFormatJSON bool

	// Heading-detection policy
	HeadingBoldThreshold float64
	HeadingBoldMarkers   []string
	HeadingHeaderFrac    float64
	HeadingFooterFrac    float64
	HeadingMinLen        int
	HeadingMaxLen        int
	HeadingMaxLevels     int
	HeadingLineTol       float64
	HeadingBandTol       float64
	HeadingLevelTol      float64
	HeadingGapFactor     float64

	// Section collection
	SectionTargetLevel int
	SectionMaxChars    int

	// Pipeline
	WorkerCount  int
	MaxQueueSize int
	SessionTTL   time.Duration

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	defaults := guideline.DefaultParams()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PERIAUDIT_API_KEY"),

		RemoteBaseURL: envOr("REMOTE_GATEWAY_URL", "https://bedrock-runtime.us-east-2.amazonaws.com"),
		RemoteAPIKey:  os.Getenv("REMOTE_GATEWAY_API_KEY"),
		RemoteModel:   envOr("REMOTE_GATEWAY_MODEL", "qwen.qwen3-32b-v1:0"),
		RemoteTimeout: envDuration("REMOTE_GATEWAY_TIMEOUT", 120*time.Second),

		OllamaURL:        envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      envOr("OLLAMA_MODEL", "amsaravi/medgemma-4b-it:q8"),
		OllamaTimeout:    envDuration("OLLAMA_TIMEOUT", 120*time.Second),
		OllamaFormatJSON: envBool("OLLAMA_FORMAT_JSON", true),

		HeadingBoldThreshold: envFloat("HEADING_BOLD_THRESHOLD", defaults.BoldThreshold),
		HeadingBoldMarkers:   envList("HEADING_BOLD_MARKERS", defaults.BoldMarkers),
		HeadingHeaderFrac:    envFloat("HEADING_HEADER_FRAC", defaults.HeaderFrac),
		HeadingFooterFrac:    envFloat("HEADING_FOOTER_FRAC", defaults.FooterFrac),
		HeadingMinLen:        envInt("HEADING_MIN_LEN", defaults.MinLen),
		HeadingMaxLen:        envInt("HEADING_MAX_LEN", defaults.MaxLen),
		HeadingMaxLevels:     envInt("HEADING_MAX_LEVELS", defaults.MaxLevels),
		HeadingLineTol:       envFloat("HEADING_LINE_TOL", defaults.LineTol),
		HeadingBandTol:       envFloat("HEADING_BAND_TOL", defaults.BandTol),
		HeadingLevelTol:      envFloat("HEADING_LEVEL_TOL", defaults.LevelTol),
		HeadingGapFactor:     envFloat("HEADING_GAP_FACTOR", defaults.GapFactor),

		SectionTargetLevel: envInt("SECTION_TARGET_LEVEL", 2),
		SectionMaxChars:    envInt("SECTION_MAX_CHARS", 2000),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),
		SessionTTL:   envDuration("SESSION_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SectionTargetLevel <= 0 {
		cfg.SectionTargetLevel = 2
	}
	if cfg.SectionMaxChars <= 0 {
		cfg.SectionMaxChars = 2000
	}

	return cfg
}

// HeadingParams assembles the guideline-extraction policy from config.
func (c Config) HeadingParams() guideline.Params {
	return guideline.Params{
		BoldThreshold: c.HeadingBoldThreshold,
		BoldMarkers:   c.HeadingBoldMarkers,
		HeaderFrac:    c.HeadingHeaderFrac,
		FooterFrac:    c.HeadingFooterFrac,
		MinLen:        c.HeadingMinLen,
		MaxLen:        c.HeadingMaxLen,
		MaxLevels:     c.HeadingMaxLevels,
		LineTol:       c.HeadingLineTol,
		BandTol:       c.HeadingBandTol,
		LevelTol:      c.HeadingLevelTol,
		GapFactor:     c.HeadingGapFactor,
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PERIAUDIT_API_KEY is required")
	}
	if c.RemoteAPIKey == "" {
		return fmt.Errorf("REMOTE_GATEWAY_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
