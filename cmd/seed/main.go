package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/xptrack/internal/seed"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		accounts = flag.Int("accounts", seed.DefaultAccounts, "Number of accounts to generate")
		days     = flag.Int("days", seed.DefaultDays, "Days of history per account")
		workers  = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent submitters")
		seedVal  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed for values")
		timeout  = flag.Duration("timeout", seed.DefaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", seed.DefaultSettle, "How long to wait for storage")
		output   = flag.String("output", "", "Write every submission to this JSON file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := seed.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Accounts:   *accounts,
		Days:       *days,
		Workers:    *workers,
		Seed:       *seedVal,
		Timeout:    *timeout,
		Settle:     *settle,
		OutputFile: *output,
		Verbose:    *verbose,
	}

	if _, err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
