// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wingedpig/kaleido/internal/app"
	"github.com/wingedpig/kaleido/internal/config"
)

var (
	version = "0.20"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Parse flags
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
		debug       bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.BoolVar(&debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if showVersion {
		fmt.Printf("kaleido %s\n", version)
		os.Exit(0)
	}

	// Find config file if not specified; run on defaults when none exists.
	if configPath == "" {
		loader := config.NewLoader()
		found, err := loader.FindConfig()
		if err == nil {
			configPath = found
		}
	}

	if configPath != "" {
		log.Printf("Using config: %s", configPath)
	} else {
		log.Printf("No config file found, using defaults")
	}

	// Create and run app
	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Debug:      debug,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx := context.Background()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("App error: %v", err)
	}
}

// runInit handles the "kaleido init" command
func runInit() error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(os.Args[2:])

	if *showHelp {
		fmt.Println(`Usage: kaleido init [options]

Create a new kaleido.hjson configuration file in the current directory.

This command walks you through setting up a Kaleido configuration with
interactive prompts. The generated file is commented to help you customize
the available options.

Options:
  -h, -help    Show this help message

The command will ask about:
  - Project name (defaults to current directory name)
  - Server port (defaults to 8626)
  - Render surface size
  - Whether the host document supports video fills

Examples:
  kaleido init              Create config with interactive prompts

After running init:
  1. Review and edit kaleido.hjson as needed
  2. Run: ./kaleido
  3. Point your tools at: http://localhost:8626`)
		return nil
	}

	configFile := "kaleido.hjson"

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Kaleido Configuration Setup")
	fmt.Println("============================")
	fmt.Println()
	fmt.Println("This will create a kaleido.hjson configuration file in the current directory.")
	fmt.Println("Press Enter to accept defaults shown in [brackets].")
	fmt.Println()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	defaultName := filepath.Base(cwd)

	projectName := prompt(reader, "Project name", defaultName)

	portStr := prompt(reader, "Server port", "8626")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 8626
	}

	sizeStr := prompt(reader, "Render surface size (pixels, square)", "604")
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		size = 604
	}

	videoStr := prompt(reader, "Does the host document support video fills? (y/n)", "y")
	videoSupported := strings.ToLower(videoStr) == "y"

	configContent := generateConfig(projectName, port, size, videoSupported)

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit kaleido.hjson as needed")
	fmt.Println("  2. Run: ./kaleido")
	fmt.Println("  3. Point your tools at: http://localhost:" + strconv.Itoa(port))
	fmt.Println()

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// escapeHJSONValue escapes a string for safe inclusion in an HJSON double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func generateConfig(projectName string, port, surfaceSize int, videoSupported bool) string {
	var sb strings.Builder

	sb.WriteString(`{
  // =============================================================================
  // Kaleido Configuration
  // =============================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).

  // ---------------------------------------------------------------------------
  // Project Metadata
  // ---------------------------------------------------------------------------
  project: {
    name: "`)
	sb.WriteString(escapeHJSONValue(projectName))
	sb.WriteString(`"
  }

  // ---------------------------------------------------------------------------
  // Server Settings
  // ---------------------------------------------------------------------------
  server: {
    // Host to bind to (use "0.0.0.0" to allow remote access)
    host: "127.0.0.1"

    // Port for the API and the studio channel WebSocket
    port: `)
	sb.WriteString(strconv.Itoa(port))
	sb.WriteString(`

    // For HTTPS, uncomment and set paths to your certificates:
    // tls_cert: "~/.kaleido/cert.pem"
    // tls_key: "~/.kaleido/key.pem"
  }

  // ---------------------------------------------------------------------------
  // Storage
  // ---------------------------------------------------------------------------
  //
  // Where persisted settings and other client storage records live.
  storage: {
    dir: ".kaleido/storage"
  }

  // ---------------------------------------------------------------------------
  // Render Surface
  // ---------------------------------------------------------------------------
  //
  // The square canvas the animated gradient renders on. Captures are taken at
  // this resolution.
  surface: {
    width: `)
	sb.WriteString(strconv.Itoa(surfaceSize))
	sb.WriteString(`
    height: `)
	sb.WriteString(strconv.Itoa(surfaceSize))
	sb.WriteString(`
  }

  // ---------------------------------------------------------------------------
  // Capture
  // ---------------------------------------------------------------------------
  capture: {
    // Video capture rate in frames per second
    frame_rate: 30

    // Selectable capture lengths
    durations: ["15s", "30s", "60s"]
  }

  // ---------------------------------------------------------------------------
  // Host Document
  // ---------------------------------------------------------------------------
  document: {
    // Visible page region; new nodes are centered here
    viewport: { x: 0, y: 0, w: 1920, h: 1080 }

    // Whether the document supports video fills. When false, video captures
    // fall back to still images on insert.
    video_supported: `)
	sb.WriteString(strconv.FormatBool(videoSupported))
	sb.WriteString(`

    // Reference heights nodes are scaled against
    // video_ref_dim: 604
    // image_ref_dim: 1024
  }

  // ---------------------------------------------------------------------------
  // Events
  // ---------------------------------------------------------------------------
  //
  // events: {
  //   history: {
  //     max_events: 1000
  //     max_age: "1h"
  //   }
  // }

  // ---------------------------------------------------------------------------
  // Storage Watching
  // ---------------------------------------------------------------------------
  //
  // Controls how Kaleido detects external edits to storage records.
  watch: {
    // Wait for rapid changes to settle before notifying
    debounce: "100ms"
  }
}
`)

	return sb.String()
}
