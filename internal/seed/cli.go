package seed

import (
	"fmt"
	"os"

	"github.com/okian/xptrack/pkg/logger"
)

// SetupLogging initializes the global logger for the seed command.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`xptrack seed
============

Generates synthetic daily snapshot histories, submits them to a running
xptrack service and checks every tracker view against a local computation.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -accounts int      Number of accounts to generate (default 50)
  -days int          Days of history per account (default 14)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -seed uint         Random seed for values (default: time based)
  -timeout duration  HTTP request timeout (default 30s)
  -settle duration   How long to wait for storage before giving up (default 10s)
  -output string     Write every submission to this JSON file
  -verbose           Enable debug logging
  -help              Show this help message
`)
}
