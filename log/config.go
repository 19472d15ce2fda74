package log

import "github.com/rs/zerolog"

// Config controls logger formatting and level. Fields can be populated from the environment (see struct tags).
type Config struct {
	HumanFriendly   bool   `envconfig:"optional"` // when true, use a readable console format instead of JSON
	NoColoredOutput bool   `envconfig:"optional"` // disable ANSI colors in human-friendly output
	Level           string `envconfig:"optional"` // level name, e.g. "debug", "info", "warn", "error"
}

// SetDefault fills unset fields. An empty Level defaults to warn, which keeps passing runs quiet.
func (c *Config) SetDefault() {
	if c.Level == "" {
		c.Level = zerolog.WarnLevel.String()
	}
}
