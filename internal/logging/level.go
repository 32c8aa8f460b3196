package logging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

var levelNames = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// ParseLevel accepts a level name or a positive integer verbosity. Verbosity N
// enables logr V(N) entries, which zap represents as level -N.
func ParseLevel(value string) (zapcore.Level, error) {
	if level, ok := levelNames[strings.ToLower(value)]; ok {
		return level, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", value)
	}
	return zapcore.Level(int8(-n)), nil
}

// LevelFlag is a pflag.Value that applies the parsed level as soon as the flag
// is set.
type LevelFlag struct {
	apply func(zapcore.Level)
	value string
}

var _ pflag.Value = (*LevelFlag)(nil)

// NewLevelFlag creates a LevelFlag calling apply on every Set.
func NewLevelFlag(apply func(zapcore.Level)) *LevelFlag {
	return &LevelFlag{apply: apply}
}

// Set implements pflag.Value.
func (f *LevelFlag) Set(value string) error {
	level, err := ParseLevel(value)
	if err != nil {
		return err
	}
	f.value = value
	if f.apply != nil {
		f.apply(level)
	}
	return nil
}

// String implements pflag.Value.
func (f *LevelFlag) String() string {
	return f.value
}

// Type implements pflag.Value.
func (f *LevelFlag) Type() string {
	return "level"
}
