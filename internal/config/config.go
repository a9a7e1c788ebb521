// Package config loads cefrplace settings from defaults, an optional .env
// file and CEFRPLACE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/cefrplace/internal/cefr"
	"github.com/abhisek/cefrplace/internal/session"
)

// Config holds all runtime configuration.
type Config struct {
	// DBPath is the SQLite database file. Empty means the platform default.
	DBPath string

	// LogLevel is a zap level name. Default: "warn".
	LogLevel string
	// LogDevelopment switches to human-readable console logs.
	LogDevelopment bool
	// LogFile, when set, also writes rotated JSON logs to this path.
	LogFile string

	// Mode is the test variant, "quick" or "full". Default: "quick".
	Mode string
	// QuestionsPerSkill overrides the mode's default when > 0.
	QuestionsPerSkill int
	// Skills is a comma-separated list of skills to test. Default: all four.
	Skills string
	// Weights is an optional "skill=weight,..." list for the final level.
	// Empty means equal weights.
	Weights string

	// envErrs holds environment values that failed to parse; Validate
	// reports them.
	envErrs []error
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Mode:     string(session.ModeQuick),
		Skills:   "reading,listening,writing,speaking",
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables already set. Missing files are
// not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("CEFRPLACE_DB"); p != "" {
		cfg.DBPath = p
	}
	if l := os.Getenv("CEFRPLACE_LOG_LEVEL"); l != "" {
		cfg.LogLevel = l
	}
	if f := os.Getenv("CEFRPLACE_LOG_FILE"); f != "" {
		cfg.LogFile = f
	}
	if d := os.Getenv("CEFRPLACE_LOG_DEV"); d != "" {
		v, err := strconv.ParseBool(d)
		if err != nil {
			cfg.envErrs = append(cfg.envErrs, fmt.Errorf("CEFRPLACE_LOG_DEV: %w", err))
		}
		cfg.LogDevelopment = v
	}

	if m := os.Getenv("CEFRPLACE_MODE"); m != "" {
		cfg.Mode = m
	}
	if n := os.Getenv("CEFRPLACE_QUESTIONS_PER_SKILL"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			cfg.envErrs = append(cfg.envErrs, fmt.Errorf("CEFRPLACE_QUESTIONS_PER_SKILL: %w", err))
		}
		cfg.QuestionsPerSkill = v
	}
	if s := os.Getenv("CEFRPLACE_SKILLS"); s != "" {
		cfg.Skills = s
	}
	if w := os.Getenv("CEFRPLACE_WEIGHTS"); w != "" {
		cfg.Weights = w
	}

	return cfg
}

// Validate checks that every setting parses.
func (c Config) Validate() error {
	if err := errors.Join(c.envErrs...); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("CEFRPLACE_LOG_LEVEL: %w", err)
	}
	if _, err := session.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("CEFRPLACE_MODE: %w", err)
	}
	if c.QuestionsPerSkill < 0 {
		return fmt.Errorf("CEFRPLACE_QUESTIONS_PER_SKILL must be >= 0, got %d", c.QuestionsPerSkill)
	}
	if _, err := cefr.ParseSkills(c.Skills); err != nil {
		return fmt.Errorf("CEFRPLACE_SKILLS: %w", err)
	}
	if _, err := ParseWeights(c.Weights); err != nil {
		return fmt.Errorf("CEFRPLACE_WEIGHTS: %w", err)
	}
	return nil
}

// PerSkill returns the configured question count for a mode.
func (c Config) PerSkill(mode session.Mode) int {
	if c.QuestionsPerSkill > 0 {
		return c.QuestionsPerSkill
	}
	return mode.DefaultQuestionsPerSkill()
}

// ParseWeights parses "skill=weight" pairs separated by commas. An empty
// string yields a nil map.
func ParseWeights(s string) (map[cefr.Skill]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := make(map[cefr.Skill]float64)
	for _, part := range strings.Split(s, ",") {
		name, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q: want skill=weight", part)
		}
		skill, err := cefr.ParseSkill(name)
		if err != nil {
			return nil, err
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || w < 0 {
			return nil, fmt.Errorf("invalid weight for %s: %q", skill, val)
		}
		out[skill] = w
	}
	return out, nil
}
