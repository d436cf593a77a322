// Package config loads wolf-eval settings from config.yaml, the environment,
// and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Corpus     CorpusConfig  `yaml:"corpus" mapstructure:"corpus"`
	Eval       EvalConfig    `yaml:"eval" mapstructure:"eval"`
	Scorer     ScorerConfig  `yaml:"scorer" mapstructure:"scorer"`
	Model      ModelConfig   `yaml:"model" mapstructure:"model"`
	Anthropic  KeyConfig     `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     KeyConfig     `yaml:"openai" mapstructure:"openai"`
	OpenRouter KeyConfig     `yaml:"openrouter" mapstructure:"openrouter"`
	Gemini     KeyConfig     `yaml:"gemini" mapstructure:"gemini"`
	Ollama     OllamaConfig  `yaml:"ollama" mapstructure:"ollama"`
	Retry      RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Breaker    BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Export     ExportConfig  `yaml:"export" mapstructure:"export"`
	Server     ServerConfig  `yaml:"server" mapstructure:"server"`
	Log        LogConfig     `yaml:"log" mapstructure:"log"`
}

// CorpusConfig locates the transcript archive and bounds how much of it is read.
type CorpusConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	URL         string `yaml:"url" mapstructure:"url"`
	MaxGames    int    `yaml:"max_games" mapstructure:"max_games"`
	MaxLines    int    `yaml:"max_lines" mapstructure:"max_lines"`
	EntrySuffix string `yaml:"entry_suffix" mapstructure:"entry_suffix"`
}

// EvalConfig configures prompt construction and evaluation fan-out.
type EvalConfig struct {
	MaxTurns    int `yaml:"max_turns" mapstructure:"max_turns"`
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ScorerConfig holds the suspicion heuristic weights.
type ScorerConfig struct {
	VoteWeight        float64 `yaml:"vote_weight" mapstructure:"vote_weight"`
	DivineWolfWeight  float64 `yaml:"divine_wolf_weight" mapstructure:"divine_wolf_weight"`
	DivineHumanWeight float64 `yaml:"divine_human_weight" mapstructure:"divine_human_weight"`
	Epsilon           float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// ModelConfig selects and tunes the model backend.
type ModelConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Name              string  `yaml:"name" mapstructure:"name"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// KeyConfig holds a provider API key.
type KeyConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OllamaConfig locates a local Ollama server.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// RetryConfig configures the model-call retry schedule.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// BreakerConfig configures the model-call circuit breaker. A zero
// threshold (the default) disables it.
type BreakerConfig struct {
	Threshold    int `yaml:"threshold" mapstructure:"threshold"`
	CooldownSecs int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// ExportConfig configures where results are written.
type ExportConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	XLSX bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// ServerConfig configures the results API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Providers accepted by model.provider.
var Providers = []string{"auto", "anthropic", "openai", "openrouter", "gemini", "ollama"}

// Load reads configuration from .env, config.yaml and the environment.
// Environment variables use the WOLF_ prefix with dots replaced by
// underscores; the conventional provider key variables are honored too.
func Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"anthropic.key":   "ANTHROPIC_API_KEY",
		"openai.key":      "OPENAI_API_KEY",
		"openrouter.key":  "OPENROUTER_API_KEY",
		"gemini.key":      "GEMINI_API_KEY",
		"ollama.endpoint": "OLLAMA_HOST",
	} {
		if err := v.BindEnv(key, "WOLF_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	v.SetDefault("corpus.path", "data/aiwolf-logs.tar.gz")
	v.SetDefault("corpus.max_games", 8)
	v.SetDefault("corpus.max_lines", 140)
	v.SetDefault("corpus.entry_suffix", ".log.gz")
	v.SetDefault("eval.max_turns", 25)
	v.SetDefault("eval.concurrency", 1)
	v.SetDefault("scorer.vote_weight", 0.3)
	v.SetDefault("scorer.divine_wolf_weight", 0.6)
	v.SetDefault("scorer.divine_human_weight", -0.2)
	v.SetDefault("scorer.epsilon", 1e-3)
	v.SetDefault("model.provider", "auto")
	v.SetDefault("model.max_tokens", 120)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.timeout_secs", 120)
	v.SetDefault("ollama.endpoint", "http://localhost:11434")
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.0)
	v.SetDefault("breaker.threshold", 0)
	v.SetDefault("breaker.cooldown_secs", 30)
	v.SetDefault("export.dir", "results")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "eval":
		if c.Corpus.Path == "" && c.Corpus.URL == "" {
			errs = append(errs, "corpus.path or corpus.url is required")
		}
		if c.Eval.Concurrency < 1 || c.Eval.Concurrency > 64 {
			errs = append(errs, "eval.concurrency must be between 1 and 64")
		}
		if c.Eval.MaxTurns < 1 {
			errs = append(errs, "eval.max_turns must be > 0")
		}
		if c.Model.MaxTokens < 1 {
			errs = append(errs, "model.max_tokens must be > 0")
		}
		if !validProvider(c.Model.Provider) {
			errs = append(errs, fmt.Sprintf("model.provider must be one of %s", strings.Join(Providers, ", ")))
		}
		if c.Scorer.Epsilon <= 0 {
			errs = append(errs, "scorer.epsilon must be > 0")
		}
	case "fetch":
		if c.Corpus.URL == "" {
			errs = append(errs, "corpus.url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validProvider(p string) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
