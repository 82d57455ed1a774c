package logging

import (
	"log/slog"
	"path/filepath"
	"strings"

	"vapord/internal/config"
)

// NewFromConfig builds the daemon logger from configuration: stdout plus the
// vapord.log file under the configured log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{"stdout"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputs = append(outputs, filepath.Join(dir, "vapord.log"))
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}
