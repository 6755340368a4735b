package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// NewFileLogger opens a zerolog logger appending to path. The TUI owns
// stdout, so everything structured goes to a file instead. The returned
// close func flushes by closing the file; callers defer it.
func NewFileLogger(path string) (zerolog.Logger, func(), error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return zerolog.Nop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory for %s: %w", p, err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", p, err)
	}
	logger := zerolog.New(f).With().Timestamp().Str("app", "planhub").Logger()
	return logger, func() { _ = f.Close() }, nil
}
