package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/travelwarn/travelwarn/log"
)

// logLevelFlag accepts debug, info, warn or error.
type logLevelFlag struct {
	IsSet bool
	Level slog.Level
}

// String implements pflag.Value.
func (f *logLevelFlag) String() string {
	if !f.IsSet {
		return ""
	}
	return strings.ToLower(f.Level.String())
}

func (f *logLevelFlag) Set(value string) error {
	l, ok := log.ParseLevel(value)
	if !ok {
		return fmt.Errorf("unknown log level %q", value)
	}
	f.Level = l
	f.IsSet = true
	return nil
}

func (f *logLevelFlag) Type() string {
	return "level"
}

var _ pflag.Value = &logLevelFlag{}

// tableFlag selects which lookup table the resolve command uses.
type tableFlag struct {
	Value string
}

var tableNames = []string{"slug", "level", "country"}

func (f *tableFlag) String() string {
	return f.Value
}

func (f *tableFlag) Set(value string) error {
	if !lo.Contains(tableNames, value) {
		return fmt.Errorf("must be one of %s", strings.Join(tableNames, ", "))
	}
	f.Value = value
	return nil
}

func (f *tableFlag) Type() string {
	return "table"
}

var _ pflag.Value = &tableFlag{}
