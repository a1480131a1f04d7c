// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ClosePolicy names what happens immediately after the agent emits a close tag.
type ClosePolicy string

const (
	// ClosePolicyImmediate ends the call the moment the close tag is seen;
	// conversion is decided from the latest sentiment snapshot.
	ClosePolicyImmediate ClosePolicy = "immediate"

	// ClosePolicyConfirm gives the customer one final turn to answer the
	// close explicitly before the call ends.
	ClosePolicyConfirm ClosePolicy = "confirm"
)

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Storage settings. SQLitePath is used unless DatabaseURL is set,
	// in which case the Postgres backend takes over.
	DatabaseURL string
	SQLitePath  string

	// Completion provider settings.
	CompletionProvider string // "auto", "anthropic", "gemini", or "noop"
	AnthropicAPIKey    string
	AnthropicModel     string
	GeminiAPIKey       string
	GeminiModel        string
	CompletionTimeout  time.Duration // per-call deadline for external calls

	// Game settings.
	Game Game

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
}

// Game holds the tunable rules of the call simulation. Every threshold the
// turn loop consults lives here rather than as a magic number in the rules.
type Game struct {
	MaxTurns    int
	ClosePolicy ClosePolicy

	// Fraud rates for customer generation.
	FraudRate       float64
	WarmupFraudRate float64

	// Frustration and bounce thresholds.
	MaxFrustration       float64
	BounceThreshold      float64
	MinBounceTurn        int
	SentimentBounceGate  int
	HandEarlyBounceTurn  int
	HandEarlyBounceScore float64

	// Agent prompt urgency escalation turns.
	UrgencyNoteTurn   int
	UrgencyUrgentTurn int

	// Learned-pattern retention per archetype.
	MaxPatterns int

	// Bonus points for a correct motivation guess.
	MotivationBonus int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("SIM_PORT", 8080),
		ReadTimeout:         envDuration("SIM_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("SIM_WRITE_TIMEOUT", 0), // 0 = no deadline; call streams are long-lived
		DatabaseURL:         envStr("DATABASE_URL", ""),
		SQLitePath:          envStr("SIM_SQLITE_PATH", "results/simulator.db"),
		CompletionProvider:  envStr("SIM_COMPLETION_PROVIDER", "auto"),
		AnthropicAPIKey:     envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      envStr("SIM_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		GeminiAPIKey:        envStr("GEMINI_API_KEY", ""),
		GeminiModel:         envStr("SIM_GEMINI_MODEL", "gemini-2.0-flash"),
		CompletionTimeout:   envDuration("SIM_COMPLETION_TIMEOUT", 45*time.Second),
		Game:                DefaultGame(),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "android-converter"),
		LogLevel:            envStr("SIM_LOG_LEVEL", "info"),
		MaxRequestBodyBytes: int64(envInt("SIM_MAX_REQUEST_BODY_BYTES", 1*1024*1024)),
	}

	cfg.Game.MaxTurns = envInt("SIM_MAX_TURNS", cfg.Game.MaxTurns)
	cfg.Game.ClosePolicy = ClosePolicy(envStr("SIM_CLOSE_POLICY", string(cfg.Game.ClosePolicy)))
	cfg.Game.FraudRate = envFloat("SIM_FRAUD_RATE", cfg.Game.FraudRate)
	cfg.Game.WarmupFraudRate = envFloat("SIM_WARMUP_FRAUD_RATE", cfg.Game.WarmupFraudRate)
	cfg.Game.BounceThreshold = envFloat("SIM_BOUNCE_THRESHOLD", cfg.Game.BounceThreshold)
	cfg.Game.MinBounceTurn = envInt("SIM_MIN_BOUNCE_TURN", cfg.Game.MinBounceTurn)
	cfg.Game.SentimentBounceGate = envInt("SIM_SENTIMENT_BOUNCE_GATE", cfg.Game.SentimentBounceGate)
	cfg.Game.HandEarlyBounceTurn = envInt("SIM_HAND_EARLY_BOUNCE_TURN", cfg.Game.HandEarlyBounceTurn)
	cfg.Game.HandEarlyBounceScore = envFloat("SIM_HAND_EARLY_BOUNCE_THRESHOLD", cfg.Game.HandEarlyBounceScore)
	cfg.Game.MaxPatterns = envInt("SIM_MAX_PATTERNS", cfg.Game.MaxPatterns)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultGame returns the baseline rule set used when no overrides are present.
func DefaultGame() Game {
	return Game{
		MaxTurns:             8,
		ClosePolicy:          ClosePolicyImmediate,
		FraudRate:            0.15,
		WarmupFraudRate:      0.05,
		MaxFrustration:       10.0,
		BounceThreshold:      8.0,
		MinBounceTurn:        3,
		SentimentBounceGate:  6,
		HandEarlyBounceTurn:  4,
		HandEarlyBounceScore: 6.0,
		UrgencyNoteTurn:      4,
		UrgencyUrgentTurn:    6,
		MaxPatterns:          10,
		MotivationBonus:      2,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: SIM_PORT must be in 1-65535, got %d", c.Port)
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("config: one of DATABASE_URL or SIM_SQLITE_PATH is required")
	}
	switch c.CompletionProvider {
	case "auto", "anthropic", "gemini", "noop":
	default:
		return fmt.Errorf("config: SIM_COMPLETION_PROVIDER must be auto, anthropic, gemini, or noop, got %q", c.CompletionProvider)
	}
	return c.Game.Validate()
}

// Validate checks the game rule thresholds.
func (g Game) Validate() error {
	if g.MaxTurns <= 0 {
		return fmt.Errorf("config: SIM_MAX_TURNS must be positive, got %d", g.MaxTurns)
	}
	switch g.ClosePolicy {
	case ClosePolicyImmediate, ClosePolicyConfirm:
	default:
		return fmt.Errorf("config: SIM_CLOSE_POLICY must be %q or %q, got %q",
			ClosePolicyImmediate, ClosePolicyConfirm, g.ClosePolicy)
	}
	if g.FraudRate < 0 || g.FraudRate > 1 {
		return fmt.Errorf("config: SIM_FRAUD_RATE must be in [0,1], got %g", g.FraudRate)
	}
	if g.WarmupFraudRate < 0 || g.WarmupFraudRate > 1 {
		return fmt.Errorf("config: SIM_WARMUP_FRAUD_RATE must be in [0,1], got %g", g.WarmupFraudRate)
	}
	if g.MinBounceTurn < 0 {
		return fmt.Errorf("config: SIM_MIN_BOUNCE_TURN must be non-negative, got %d", g.MinBounceTurn)
	}
	if g.MaxPatterns <= 0 {
		return fmt.Errorf("config: SIM_MAX_PATTERNS must be positive, got %d", g.MaxPatterns)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
