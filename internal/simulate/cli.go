package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/perfectcircle/pkg/logger"
)

// SetupLogging sends logs to stdout and, when logFile is set, to that file too.
// The returned function closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	w := io.Writer(os.Stdout)
	closer := func() error { return nil }
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return closer, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = f.Close
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return closer, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Perfect Circle Simulator
========================

Generates synthetic gestures, scores them against a running server, submits
the eligible ones and verifies the resulting leaderboard.

Usage:
  simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:8080")
  -gestures int      Number of gestures to generate (default 200)
  -width float       Canvas side in pixels (default 600)
  -jitter float      Radial noise as a fraction of the radius (default 0.02)
  -seed uint         Generator seed, 0 for time based (default 0)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 10s)
  -settle duration   Time allowed for submissions to be stored (default 2s)
  -limit int         Leaderboard entries to fetch and verify (default 50)
  -threshold float   Submit threshold configured on the server (default 70)
  -output string     Write scored gestures to this JSON file
  -log string        Also write logs to this file
  -verbose           Log every gesture
  -help              Show this help message

Examples:
  simulate -gestures 1000 -workers 16
  simulate -seed 42 -jitter 0.05 -output run.json
`)
}
