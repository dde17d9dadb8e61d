package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lazharichir/trumpout/domain"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	// Game holds the rules a room gets unless its creator overrides them
	Game domain.GameConfig
}

// Load reads an optional .env file, then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	defaults := domain.DefaultGameConfig()
	cfg := Config{
		Port:           getenv("PORT", "7777"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "*")),
		Game: domain.GameConfig{
			Scoring: getenv("SCORING_POLICY", defaults.Scoring),
		},
	}

	ints := []struct {
		key string
		dst *int
		def int
	}{
		{"PLAYER_COUNT", &cfg.Game.PlayerCount, defaults.PlayerCount},
		{"HAND_COUNT", &cfg.Game.HandCount, defaults.HandCount},
		{"MULLIGAN_COUNT", &cfg.Game.MulliganCount, defaults.MulliganCount},
		{"MAX_CARDS_PER_PLAY", &cfg.Game.MaxCardsPerPlay, defaults.MaxCardsPerPlay},
		{"FIRST_PLAYER_THRESHOLD", &cfg.Game.FirstPlayerThreshold, defaults.FirstPlayerThreshold},
		{"SPECIAL_COPIES", &cfg.Game.SpecialCopies, defaults.SpecialCopies},
		{"JOKER_COUNT", &cfg.Game.JokerCount, defaults.JokerCount},
	}
	for _, v := range ints {
		n, err := getenvInt(v.key, v.def)
		if err != nil {
			return Config{}, err
		}
		*v.dst = n
	}

	if err := cfg.Game.Validate(); err != nil {
		return Config{}, err
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// NewLogger builds the process logger from the log settings
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

func getenv(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
