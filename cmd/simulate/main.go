package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/perfectcircle/internal/simulate"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		gestures  = flag.Int("gestures", simulate.DefaultGestures, "Number of gestures to generate")
		width     = flag.Float64("width", simulate.DefaultWidth, "Canvas side in pixels")
		jitter    = flag.Float64("jitter", simulate.DefaultJitter, "Radial noise as a fraction of the radius")
		seed      = flag.Uint64("seed", 0, "Generator seed, 0 for time based")
		workers   = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent workers")
		timeout   = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		settle    = flag.Duration("settle", simulate.DefaultSettle, "Time allowed for submissions to be stored")
		limit     = flag.Int("limit", simulate.DefaultLimit, "Leaderboard entries to fetch and verify")
		threshold = flag.Float64("threshold", simulate.DefaultThreshold, "Submit threshold configured on the server")
		output    = flag.String("output", "", "Write scored gestures to this JSON file")
		logFile   = flag.String("log", "", "Also write logs to this file")
		verbose   = flag.Bool("verbose", false, "Log every gesture")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:    *baseURL,
		Gestures:   *gestures,
		Width:      *width,
		Jitter:     *jitter,
		Seed:       *seed,
		Workers:    *workers,
		Timeout:    *timeout,
		Settle:     *settle,
		Limit:      *limit,
		Threshold:  *threshold,
		OutputFile: *output,
		Verbose:    *verbose,
	}
	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
