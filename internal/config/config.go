package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"mirrorwars/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Game      GameConfig
	Transport TransportConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	MinPlayers             int
	MaxPlayers             int
	MirrorRatio            float64
	RoleRevealSeconds      int
	ResultsSeconds         int
	PatternSeconds         int
	GridSize               int
	EnforcePatternDeadline bool
	RoomCodeAttempts       int
	StaleRoomMinutes       int
}

// TransportConfig holds per-connection limits
type TransportConfig struct {
	MessagesPerSecond float64
	MessageBurst      int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults. A .env
// file in the working directory is read first if present; variables already
// set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			MinPlayers:             getEnvInt("MIN_PLAYERS", 3),
			MaxPlayers:             getEnvInt("MAX_PLAYERS", 8),
			MirrorRatio:            getEnvFloat("MIRROR_RATIO", 0.3),
			RoleRevealSeconds:      getEnvInt("ROLE_REVEAL_SECONDS", 5),
			ResultsSeconds:         getEnvInt("RESULTS_SECONDS", 5),
			PatternSeconds:         getEnvInt("PATTERN_SECONDS", 60),
			GridSize:               getEnvInt("GRID_SIZE", 4),
			EnforcePatternDeadline: getEnvBool("ENFORCE_PATTERN_DEADLINE", true),
			RoomCodeAttempts:       getEnvInt("ROOM_CODE_ATTEMPTS", 100),
			StaleRoomMinutes:       getEnvInt("STALE_ROOM_MINUTES", 120),
		},
		Transport: TransportConfig{
			MessagesPerSecond: getEnvFloat("WS_MESSAGES_PER_SECOND", 10),
			MessageBurst:      getEnvInt("WS_MESSAGE_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the game cannot run with
func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.MinPlayers < 1:
		return fmt.Errorf("MIN_PLAYERS must be at least 1, got %d", g.MinPlayers)
	case g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("MAX_PLAYERS (%d) must not be below MIN_PLAYERS (%d)", g.MaxPlayers, g.MinPlayers)
	case g.MaxPlayers > domain.RoomCapacity:
		return fmt.Errorf("MAX_PLAYERS must be at most %d, got %d", domain.RoomCapacity, g.MaxPlayers)
	case g.MirrorRatio < 0 || g.MirrorRatio >= 1:
		return fmt.Errorf("MIRROR_RATIO must be in [0, 1), got %v", g.MirrorRatio)
	case g.GridSize < 1 || g.GridSize > domain.MaxGridSize:
		return fmt.Errorf("GRID_SIZE must be in [1, %d], got %d", domain.MaxGridSize, g.GridSize)
	case g.RoleRevealSeconds < 0 || g.ResultsSeconds < 0 || g.PatternSeconds < 0:
		return errors.New("phase durations must not be negative")
	case c.Transport.MessagesPerSecond <= 0 || c.Transport.MessageBurst < 1:
		return errors.New("websocket rate limit must be positive")
	}
	return nil
}

// GameSettings converts the game section into domain settings
func (c *Config) GameSettings() domain.GameSettings {
	return domain.GameSettings{
		MinPlayers:             c.Game.MinPlayers,
		MaxPlayers:             c.Game.MaxPlayers,
		MirrorRatio:            c.Game.MirrorRatio,
		GridSize:               c.Game.GridSize,
		RoleRevealDelay:        time.Duration(c.Game.RoleRevealSeconds) * time.Second,
		ResultsDelay:           time.Duration(c.Game.ResultsSeconds) * time.Second,
		PatternDuration:        time.Duration(c.Game.PatternSeconds) * time.Second,
		EnforcePatternDeadline: c.Game.EnforcePatternDeadline,
	}
}

// StaleRoomTimeout returns how long a room may sit idle
func (c *Config) StaleRoomTimeout() time.Duration {
	return time.Duration(c.Game.StaleRoomMinutes) * time.Minute
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as a float or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as a bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
