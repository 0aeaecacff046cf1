package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bnema/clawfarm/internal/application"
)

// app carries the loaded configuration into each subcommand. The logger is
// resolved lazily because flags are only parsed after wiring.
type app struct {
	cfg    config
	logger func() *zap.Logger
}

type config struct {
	BaseURL     string
	APIKeysFile string
	ProxiesFile string
	StateFile   string
	StatsFile   string
	LogFile     string
	ListenAddr  string
	UserAgent   string

	TokenMin int
	TokenMax int

	TrustTarget    int
	TrustPerMoment int
	MaxMoments     int
	MomentCooldown time.Duration
	StakeFloor     int64

	StaggerInterval time.Duration
	PersistInterval time.Duration

	ChallengeDepth   int
	TakenStreakLimit int

	TakenBackoffMin      time.Duration
	TakenBackoffMax      time.Duration
	RateLimitJitterMin   time.Duration
	RateLimitJitterMax   time.Duration
	ChallengeCooldownMin time.Duration
	ChallengeCooldownMax time.Duration
	CycleDelayMin        time.Duration
	CycleDelayMax        time.Duration
	MomentPause          time.Duration
	FaultPause           time.Duration

	OpenRouterKey   string
	OpenRouterModel string
}

func wireApp() (*app, error) {
	cfg, err := loadConfig(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &app{cfg: cfg, logger: zap.NewNop}, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	v.SetConfigName("clawfarm")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/clawfarm")
	v.SetEnvPrefix("CLAWFARM")
	v.AutomaticEnv()

	v.SetDefault("base_url", "https://clawplaza.ai/api")
	v.SetDefault("api_keys_file", "api_keys.txt")
	v.SetDefault("proxies_file", "proxies.txt")
	v.SetDefault("state_file", "farm_state.toml")
	v.SetDefault("stats_file", "farm_stats.json")
	v.SetDefault("log_file", "farm_log.txt")
	v.SetDefault("listen_addr", "127.0.0.1:8420")
	v.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	v.SetDefault("token_min", 25)
	v.SetDefault("token_max", 1024)

	v.SetDefault("trust_target", 65)
	v.SetDefault("trust_per_moment", 6)
	v.SetDefault("max_moments", 5)
	v.SetDefault("moment_cooldown", "5h")
	v.SetDefault("stake_floor", 20000)

	v.SetDefault("stagger_interval", "20s")
	v.SetDefault("persist_interval", "30s")

	v.SetDefault("challenge_depth", 3)
	v.SetDefault("taken_streak_limit", 10)

	v.SetDefault("taken_backoff_min", "60s")
	v.SetDefault("taken_backoff_max", "120s")
	v.SetDefault("rate_limit_jitter_min", "10s")
	v.SetDefault("rate_limit_jitter_max", "30s")
	v.SetDefault("challenge_cooldown_min", "31m")
	v.SetDefault("challenge_cooldown_max", "32m")
	v.SetDefault("cycle_delay_min", "2m")
	v.SetDefault("cycle_delay_max", "3m20s")
	v.SetDefault("moment_pause", "3s")
	v.SetDefault("fault_pause", "60s")

	v.SetDefault("openrouter_key", "")
	v.SetDefault("openrouter_model", "openai/gpt-4o-mini")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := config{
		BaseURL:     v.GetString("base_url"),
		APIKeysFile: v.GetString("api_keys_file"),
		ProxiesFile: v.GetString("proxies_file"),
		StateFile:   v.GetString("state_file"),
		StatsFile:   v.GetString("stats_file"),
		LogFile:     v.GetString("log_file"),
		ListenAddr:  v.GetString("listen_addr"),
		UserAgent:   v.GetString("user_agent"),

		TokenMin: v.GetInt("token_min"),
		TokenMax: v.GetInt("token_max"),

		TrustTarget:    v.GetInt("trust_target"),
		TrustPerMoment: v.GetInt("trust_per_moment"),
		MaxMoments:     v.GetInt("max_moments"),
		MomentCooldown: v.GetDuration("moment_cooldown"),
		StakeFloor:     v.GetInt64("stake_floor"),

		StaggerInterval: v.GetDuration("stagger_interval"),
		PersistInterval: v.GetDuration("persist_interval"),

		ChallengeDepth:   v.GetInt("challenge_depth"),
		TakenStreakLimit: v.GetInt("taken_streak_limit"),

		TakenBackoffMin:      v.GetDuration("taken_backoff_min"),
		TakenBackoffMax:      v.GetDuration("taken_backoff_max"),
		RateLimitJitterMin:   v.GetDuration("rate_limit_jitter_min"),
		RateLimitJitterMax:   v.GetDuration("rate_limit_jitter_max"),
		ChallengeCooldownMin: v.GetDuration("challenge_cooldown_min"),
		ChallengeCooldownMax: v.GetDuration("challenge_cooldown_max"),
		CycleDelayMin:        v.GetDuration("cycle_delay_min"),
		CycleDelayMax:        v.GetDuration("cycle_delay_max"),
		MomentPause:          v.GetDuration("moment_pause"),
		FaultPause:           v.GetDuration("fault_pause"),

		OpenRouterKey:   v.GetString("openrouter_key"),
		OpenRouterModel: v.GetString("openrouter_model"),
	}

	if cfg.TokenMax < cfg.TokenMin {
		return config{}, fmt.Errorf("token range inverted: min %d, max %d", cfg.TokenMin, cfg.TokenMax)
	}
	if cfg.TrustTarget <= 0 {
		return config{}, fmt.Errorf("trust target must be positive, got %d", cfg.TrustTarget)
	}

	return cfg, nil
}

func (c config) workerConfig(style string) application.WorkerConfig {
	return application.WorkerConfig{
		TrustTarget:    c.TrustTarget,
		MaxMoments:     c.MaxMoments,
		MomentCooldown: c.MomentCooldown,
		TrustPerMoment: c.TrustPerMoment,
		StakeFloor:     c.StakeFloor,
		Style:          style,

		ChallengeDepth:   c.ChallengeDepth,
		TakenStreakLimit: c.TakenStreakLimit,

		TakenBackoffMin:      c.TakenBackoffMin,
		TakenBackoffMax:      c.TakenBackoffMax,
		RateLimitJitterMin:   c.RateLimitJitterMin,
		RateLimitJitterMax:   c.RateLimitJitterMax,
		ChallengeCooldownMin: c.ChallengeCooldownMin,
		ChallengeCooldownMax: c.ChallengeCooldownMax,
		CycleDelayMin:        c.CycleDelayMin,
		CycleDelayMax:        c.CycleDelayMax,
		MomentPause:          c.MomentPause,
		FaultPause:           c.FaultPause,
	}
}
