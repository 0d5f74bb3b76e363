package app

import (
	"strings"

	"github.com/localhq/localservices/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level,
// defaulting to info. Debug deployments use the console encoder.
func ConfigureLogging(level string, debug bool) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, debug)
}
