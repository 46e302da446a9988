package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Format is the course format.
type Format string

const (
	FormatWeeks  Format = "weeks"
	FormatTopics Format = "topics"
	FormatOther  Format = "other"
)

// TOCType is where the table of contents is rendered.
type TOCType string

const (
	TOCTop  TOCType = "top"
	TOCSide TOCType = "side"
	TOCNone TOCType = "none"
)

// Course is the configuration object handed to the editor at init.
type Course struct {
	ID            int     `env:"COURSE_ID" envDefault:"2"`
	ContextID     int     `env:"CONTEXT_ID" envDefault:"20"`
	ShortName     string  `env:"COURSE_SHORTNAME" envDefault:"demo"`
	Format        Format  `env:"COURSE_FORMAT" envDefault:"topics"`
	TOCType       TOCType `env:"TOC_TYPE" envDefault:"top"`
	PartialRender bool    `env:"PARTIAL_RENDER" envDefault:"false"`
	AjaxURL       string  `env:"BACKEND_URL" envDefault:"http://localhost:8090"`
}

// Navigable reports whether table-of-contents and footer navigation are
// routed by the editor for this format.
func (c Course) Navigable() bool {
	return c.Format == FormatWeeks || c.Format == FormatTopics
}

// NumberedTitles reports whether section titles carry a "N. " prefix.
func (c Course) NumberedTitles() bool {
	return c.TOCType == TOCTop && c.Format == FormatTopics
}

// Validate checks the enumerated options.
func (c Course) Validate() error {
	switch c.Format {
	case FormatWeeks, FormatTopics, FormatOther:
	default:
		return fmt.Errorf("invalid course format %q", c.Format)
	}
	switch c.TOCType {
	case TOCTop, TOCSide, TOCNone:
	default:
		return fmt.Errorf("invalid toc type %q", c.TOCType)
	}
	if c.ID <= 0 {
		return fmt.Errorf("course id must be positive")
	}
	return nil
}

type Config struct {
	Port     string `env:"PORT" envDefault:"8090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Session key presented as a bearer token by the editor.
	SessKey string `env:"SESSKEY"`

	// Course seed for the development backend (md, html, docx, pdf, csv, txt).
	SeedFile string `env:"SEED_FILE"`

	// How long a failed move stays on screen before the session resets.
	MoveFailureDelay time.Duration `env:"MOVE_FAILURE_DELAY" envDefault:"2s"`

	Course Course
}

// Load reads .env files when present, then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SNAPEDIT_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MoveFailureDelay <= 0 {
		cfg.MoveFailureDelay = 2 * time.Second
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SessKey == "" {
		return fmt.Errorf("SNAPEDIT_SESSKEY is required")
	}
	return c.Course.Validate()
}

// ParseLevel parses a log level name (debug, info, warn, error), falling
// back to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
