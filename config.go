package hashcheck

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vrischmann/envconfig"

	"github.com/codahale/hashcheck/log"
)

// EnvPrefix is the prefix of the environment variables read by [LoadConfig], e.g. HASHCHECK_SEED.
const EnvPrefix = "HASHCHECK"

// Config holds the tunables of a run.
type Config struct {
	// Seed seeds every scenario's random source. Re-running with the same seed reproduces a failure.
	Seed string `envconfig:"default=hashcheck"`

	// FuzzRounds is the number of buffers hashed by the naive fuzz scenario.
	FuzzRounds int `envconfig:"default=10"`

	// UpdateRounds is the number of chunks fed to one instance by the multiple updates scenario.
	UpdateRounds int `envconfig:"default=100"`

	// InterleaveRounds is the number of buffers fed to both instances by the interleaved instances scenario.
	InterleaveRounds int `envconfig:"default=10"`

	// InterleaveSize is the length of each buffer in the interleaved instances scenario.
	InterleaveSize int `envconfig:"default=1024"`

	// PartitionRounds is the number of randomly partitioned messages checked for chunking invariance.
	PartitionRounds int `envconfig:"default=10"`

	// HMACRounds is the number of random key and message pairs checked by the HMAC fuzz scenario.
	HMACRounds int `envconfig:"default=10"`

	// MaxBufferExp caps every generated buffer at 1<<MaxBufferExp bytes.
	MaxBufferExp int `envconfig:"default=20"`

	// Parallel is the number of scenarios which may run at once.
	Parallel int `envconfig:"default=1"`

	Logger *log.Config
}

// DefaultConfig returns the default configuration without consulting the environment. Its Logger is nil, so runs
// using it are silent unless the suite is given a logger.
func DefaultConfig() *Config {
	return &Config{
		Seed:             "hashcheck",
		FuzzRounds:       10,
		UpdateRounds:     100,
		InterleaveRounds: 10,
		InterleaveSize:   1024,
		PartitionRounds:  10,
		HMACRounds:       10,
		MaxBufferExp:     20,
		Parallel:         1,
	}
}

// LoadConfig reads the configuration from the environment, after loading a .env file from the working directory if
// one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Logger: &log.Config{},
	}
	if err := envconfig.InitWithPrefix(config, EnvPrefix); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	config.Logger.SetDefault()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"FuzzRounds", c.FuzzRounds},
		{"UpdateRounds", c.UpdateRounds},
		{"InterleaveRounds", c.InterleaveRounds},
		{"InterleaveSize", c.InterleaveSize},
		{"PartitionRounds", c.PartitionRounds},
		{"HMACRounds", c.HMACRounds},
		{"Parallel", c.Parallel},
	} {
		if f.value <= 0 {
			return errors.Errorf("hashcheck: %s must be positive, got %d", f.name, f.value)
		}
	}

	if c.MaxBufferExp < 0 || c.MaxBufferExp > 30 {
		return errors.Errorf("hashcheck: MaxBufferExp must be in [0, 30], got %d", c.MaxBufferExp)
	}

	if c.Logger != nil && c.Logger.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logger.Level)); err != nil {
			return errors.Wrapf(err, "hashcheck: invalid Logger.Level %q", c.Logger.Level)
		}
	}
	return nil
}
