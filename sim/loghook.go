package sim

import (
	"log"
)

// LogHookBase provides the common logic for hooks that write what they see
// into a logger. Lines are tagged with Level ("DEBUG" when empty) so that a
// level filter on the logger output can drop them.
type LogHookBase struct {
	*log.Logger
	Level string
}

// Logf writes one tagged line. A nil logger discards it.
func (h *LogHookBase) Logf(format string, args ...any) {
	if h.Logger == nil {
		return
	}

	level := h.Level
	if level == "" {
		level = "DEBUG"
	}

	h.Printf("["+level+"] "+format, args...)
}
