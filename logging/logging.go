// Package logging configures the standard logger used by every simradio
// package. Messages carry their level as a "[LEVEL]" prefix.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/logutils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels are the recognized level tags, from the most verbose.
var Levels = []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"}

// Rotation limits of the log file.
const (
	maxFileSizeMB = 20
	maxBackups    = 5
	maxAgeDays    = 28
)

// NewFilter returns a writer that drops the messages below level.
func NewFilter(level string, w io.Writer) (*logutils.LevelFilter, error) {
	minLevel := logutils.LogLevel(strings.ToUpper(level))
	if !slices.Contains(Levels, minLevel) {
		return nil, fmt.Errorf("logging: unknown level %q", level)
	}

	return &logutils.LevelFilter{
		Levels:   Levels,
		MinLevel: minLevel,
		Writer:   w,
	}, nil
}

// Setup filters the default logger by level and writes it to stderr. When
// file is not empty the log is also written into a rotating file. The
// returned function closes the file.
func Setup(level, file string) (func() error, error) {
	var (
		out     io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)

	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
		out = io.MultiWriter(os.Stderr, rotating)
		closeFn = rotating.Close
	}

	filter, err := NewFilter(level, out)
	if err != nil {
		return nil, err
	}

	log.SetOutput(filter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[DEBUG] logging at %s", filter.MinLevel)

	return closeFn, nil
}
