// Package log builds the zerolog loggers used by hashcheck runs.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// New returns a logger configured by config which writes to out. A nil out writes to standard error.
func New(config *Config, out io.Writer) (zerolog.Logger, error) {
	if config == nil {
		config = &Config{}
	}
	config.SetDefault()

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return zerolog.Nop(), errors.Wrap(err, "parse level")
	}

	if out == nil {
		out = os.Stderr
	}

	return zerolog.New(buildOutput(out, config.HumanFriendly, config.NoColoredOutput)).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

func buildOutput(out io.Writer, isHumanFriendly, isNoColoredOutput bool) io.Writer {
	if !isHumanFriendly {
		return out
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    isNoColoredOutput,
		TimeFormat: time.RFC3339,
	}

	output.FormatLevel = func(i any) string {
		var v string
		if ii, ok := i.(string); ok {
			v = fmt.Sprintf("%-5s", strings.ToUpper(ii))
		}
		return fmt.Sprintf("| %s |", v)
	}

	return output
}
