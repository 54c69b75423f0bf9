package main

import (
	"flag"
	"fmt"
	"os"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var boardPath string
	var simURL string
	var headless bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/vboard/config.yml)")
	flag.StringVar(&boardPath, "board", "", "board document to load at startup (.json, .yaml, .yml)")
	flag.StringVar(&simURL, "url", "", "override simulation websocket URL")
	flag.BoolVar(&headless, "headless", false, "run without the terminal UI; the HTTP API drives the board")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("vboard - Virtual I/O Board\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if boardPath != "" {
		cfg.Board = boardPath
	}
	if simURL != "" {
		cfg.SimURL = simURL
		if err := cfg.validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if headless {
		cfg.Headless = true
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
