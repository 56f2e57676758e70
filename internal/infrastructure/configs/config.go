package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/haptiq/haptiq-server/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Game        GameConfig        `koanf:"game"`
	Store       StoreConfig       `koanf:"store"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

// GameConfig centralizes the gameplay knobs. The source app disagreed with
// itself on the minimum player count and the pulse range across revisions,
// so both are configuration rather than hardcoded constants.
type GameConfig struct {
	MinPlayers   int           `koanf:"min_players"`
	PulseMin     int           `koanf:"pulse_min"`
	PulseMax     int           `koanf:"pulse_max"`
	RoundWindow  time.Duration `koanf:"round_window"`
	RoomLifetime time.Duration `koanf:"room_lifetime"`
	CodeAttempts int           `koanf:"code_attempts"`
}

type StoreConfig struct {
	// Backend selects the store implementation: "memory" or "mongo".
	Backend string `koanf:"backend"`
}

type RateLimiterConfig struct {
	MaxRatePerSecond int           `koanf:"maxRatePerSecond"`
	MaxBurst         int           `koanf:"maxBurst"`
	CacheTTL         time.Duration `koanf:"cacheTTL"`
	SourceHeaderKey  string        `koanf:"sourceHeaderKey"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Game.PulseMin < 1 || cfg.Game.PulseMax < cfg.Game.PulseMin {
		return nil, fmt.Errorf("invalid pulse range [%d,%d]", cfg.Game.PulseMin, cfg.Game.PulseMax)
	}
	if cfg.Game.MinPlayers < 2 {
		return nil, fmt.Errorf("min_players must be at least 2, got %d", cfg.Game.MinPlayers)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization"})

	// Canonical gameplay constants: 3-player minimum (the stricter of the
	// source's two variants) and a 2..6 pulse range.
	setDefault(k, "game.min_players", 3)
	setDefault(k, "game.pulse_min", 2)
	setDefault(k, "game.pulse_max", 6)
	setDefault(k, "game.round_window", 10*time.Second)
	setDefault(k, "game.room_lifetime", 30*time.Minute)
	setDefault(k, "game.code_attempts", 5)

	setDefault(k, "store.backend", "memory")

	setDefault(k, "rateLimiter.maxRatePerSecond", 10)
	setDefault(k, "rateLimiter.maxBurst", 20)
	setDefault(k, "rateLimiter.cacheTTL", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if minPlayers := env.GetInt("GAME_MIN_PLAYERS", 0); minPlayers > 0 {
		k.Set("game.min_players", minPlayers)
	}
	if pulseMin := env.GetInt("GAME_PULSE_MIN", 0); pulseMin > 0 {
		k.Set("game.pulse_min", pulseMin)
	}
	if pulseMax := env.GetInt("GAME_PULSE_MAX", 0); pulseMax > 0 {
		k.Set("game.pulse_max", pulseMax)
	}
	if window := env.GetInt("GAME_ROUND_WINDOW_SECONDS", 0); window > 0 {
		k.Set("game.round_window", time.Duration(window)*time.Second)
	}
	if lifetime := env.GetInt("GAME_ROOM_LIFETIME_MINUTES", 0); lifetime > 0 {
		k.Set("game.room_lifetime", time.Duration(lifetime)*time.Minute)
	}

	if backend := env.GetString("STORE_BACKEND", ""); backend != "" {
		k.Set("store.backend", backend)
	}

	if maxRate := env.GetInt("RATE_LIMIT_MAX_RATE_PER_SECOND", 0); maxRate > 0 {
		k.Set("rateLimiter.maxRatePerSecond", maxRate)
	}
	if maxBurst := env.GetInt("RATE_LIMIT_MAX_BURST", 0); maxBurst > 0 {
		k.Set("rateLimiter.maxBurst", maxBurst)
	}
	if cacheTTL := env.GetInt("RATE_LIMIT_CACHE_TTL_MINUTES", 0); cacheTTL > 0 {
		k.Set("rateLimiter.cacheTTL", time.Duration(cacheTTL)*time.Minute)
	}
	if sourceKey := env.GetString("RATE_LIMIT_SOURCE_HEADER_KEY", ""); sourceKey != "" {
		k.Set("rateLimiter.sourceHeaderKey", sourceKey)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
