// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// kaleido-ctl is a command-line tool for controlling a running Kaleido instance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wingedpig/kaleido/pkg/client"
)

var (
	version    = "0.20"
	apiURL     = "http://localhost:8626"
	jsonOutput = false

	// API client instance
	apiClient *client.Client
)

func main() {
	// Check for KALEIDO_API environment variable
	if env := os.Getenv("KALEIDO_API"); env != "" {
		apiURL = strings.TrimSuffix(env, "/")
	}

	// Parse global flags and filter them out
	var filteredArgs []string
	for _, arg := range os.Args[1:] {
		if arg == "-json" {
			jsonOutput = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize API client
	apiClient = client.New(apiURL)

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	cmd := filteredArgs[0]
	args := filteredArgs[1:]

	var err error
	switch cmd {
	case "status":
		err = cmdStatus(args)
	case "capture":
		err = cmdCapture(args)
	case "settings":
		err = cmdSettings(args)
	case "colors":
		err = cmdColors(args)
	case "export":
		err = cmdExport(args)
	case "nodes":
		err = cmdNodes(args)
	case "selection":
		err = cmdSelection(args)
	case "events":
		err = cmdEvents(args)
	case "notify":
		err = cmdNotify(args)
	case "version", "-v", "--version":
		fmt.Printf("kaleido-ctl %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`kaleido-ctl - Control a running Kaleido instance

Usage:
  kaleido-ctl [-json] <command> [arguments]

Global Flags:
  -json          Output in JSON format

Environment:
  KALEIDO_API    Base URL of Kaleido API (default: http://localhost:8626)

Commands:
  status                   Show capture controller status
  capture [duration]       Trigger a capture (duration: 15s, 30s, or 60s;
                           defaults to the session setting)

  settings                 Show the session settings
  settings set <key> <value>
                           Change a setting; keys: duration, darktop, playing
  settings regenerate      Scrub the gradient to a fresh random position

  colors                   List the gradient colors
  colors add               Append a new gradient stop
  colors set <i> <hex>     Replace the stop at index i (e.g. "#FF00FF")
  colors remove <i>        Remove the stop at index i

  export [options]         Rasterize the current selection to PNG
    -o <file>              Output file (default: selection.png)

  nodes                    List document root nodes
  selection [id ...]       Show the selection, or replace it with the given IDs

  events [-n N]            Show recent events (default: 50)
    -type <pattern>        Filter by type pattern (e.g. capture.*)

  notify <message>         Send a user notification

  version                  Show version
  help                     Show this help`)
}

// printJSON outputs any value as formatted JSON
func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func cmdStatus(args []string) error {
	ctx := context.Background()

	status, err := apiClient.Capture.Status(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	fmt.Printf("State:     %s\n", status.State)
	fmt.Printf("Recording: %v\n", status.Recording)
	return nil
}

func cmdCapture(args []string) error {
	ctx := context.Background()

	duration := ""
	if len(args) > 0 {
		duration = args[0]
	}

	status, err := apiClient.Capture.Trigger(ctx, duration)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	fmt.Printf("Capture triggered (state: %s)\n", status.State)
	return nil
}

func cmdSettings(args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		settings, err := apiClient.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(settings)
			return nil
		}
		printSettings(settings)
		return nil
	}

	if args[0] == "regenerate" {
		settings, err := apiClient.Settings.Regenerate(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(settings)
			return nil
		}
		fmt.Println("Gradient regenerated")
		return nil
	}

	if args[0] != "set" || len(args) != 3 {
		return fmt.Errorf("usage: kaleido-ctl settings set <key> <value>")
	}

	key, value := args[1], args[2]
	var update client.SettingsUpdate
	switch key {
	case "duration":
		update.Duration = &value
	case "darktop":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("darktop must be true or false")
		}
		update.DarkTop = &b
	case "playing":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("playing must be true or false")
		}
		update.Playing = &b
	default:
		return fmt.Errorf("unknown setting %q (keys: duration, darktop, playing)", key)
	}

	settings, err := apiClient.Settings.Update(ctx, update)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(settings)
		return nil
	}
	printSettings(settings)
	return nil
}

func printSettings(s *client.Settings) {
	fmt.Printf("Colors:   %s\n", strings.Join(s.Colors, " "))
	fmt.Printf("DarkTop:  %v\n", s.DarkTop)
	fmt.Printf("Duration: %s\n", s.Duration)
	fmt.Printf("Playing:  %v\n", s.Playing)
}

func cmdColors(args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		settings, err := apiClient.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(settings.Colors)
			return nil
		}
		for i, c := range settings.Colors {
			fmt.Printf("%d  %s\n", i, c)
		}
		return nil
	}

	switch args[0] {
	case "add":
		color, colors, err := apiClient.Settings.AddColor(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(colors)
			return nil
		}
		fmt.Printf("Added %s (%d colors)\n", color, len(colors))
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: kaleido-ctl colors set <index> <hex>")
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		colors, err := apiClient.Settings.SetColor(ctx, idx, args[2])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(colors)
			return nil
		}
		fmt.Printf("Colors: %s\n", strings.Join(colors, " "))
		return nil

	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: kaleido-ctl colors remove <index>")
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[1])
		}
		colors, err := apiClient.Settings.RemoveColor(ctx, idx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(colors)
			return nil
		}
		fmt.Printf("Colors: %s\n", strings.Join(colors, " "))
		return nil

	default:
		return fmt.Errorf("unknown colors command %q", args[0])
	}
}

func cmdExport(args []string) error {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	output := flags.String("o", "selection.png", "Output file")
	flags.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch, err := client.DialChannel(ctx, apiURL)
	if err != nil {
		return err
	}
	defer ch.Close()

	data, err := ch.ExportSelection(ctx)
	if err != nil {
		if err == client.ErrNoSelection {
			return fmt.Errorf("nothing selected; select nodes first (kaleido-ctl selection <id> ...)")
		}
		return err
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", *output, len(data))
	return nil
}

func cmdNodes(args []string) error {
	ctx := context.Background()

	nodes, err := apiClient.Document.Nodes(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(nodes)
		return nil
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes")
		return nil
	}

	fmt.Printf("%-38s %-20s %-10s %s\n", "ID", "NAME", "KIND", "SIZE")
	fmt.Println(strings.Repeat("-", 80))
	for _, n := range nodes {
		fmt.Printf("%-38s %-20s %-10s %.0fx%.0f\n", n.ID, n.Name, n.Kind, n.W, n.H)
	}
	return nil
}

func cmdSelection(args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		sel, err := apiClient.Document.Selection(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sel)
			return nil
		}
		if len(sel) == 0 {
			fmt.Println("Nothing selected")
			return nil
		}
		for _, id := range sel {
			fmt.Println(id)
		}
		return nil
	}

	sel, err := apiClient.Document.SetSelection(ctx, args)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(sel)
		return nil
	}
	fmt.Printf("Selected %d node(s)\n", len(sel))
	return nil
}

func cmdEvents(args []string) error {
	flags := flag.NewFlagSet("events", flag.ExitOnError)
	limit := flags.Int("n", 50, "Number of events")
	typePattern := flags.String("type", "", "Event type pattern")
	flags.Parse(args)

	ctx := context.Background()

	opts := &client.ListOptions{Limit: *limit}
	if *typePattern != "" {
		opts.Types = []string{*typePattern}
	}

	events, err := apiClient.Events.List(ctx, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(events)
		return nil
	}

	if len(events) == 0 {
		fmt.Println("No events")
		return nil
	}

	for _, ev := range events {
		msg := ""
		if m, ok := ev.Payload["message"].(string); ok {
			msg = m
		}
		fmt.Printf("%s  %-22s %-7s %s\n",
			ev.Timestamp.Format("15:04:05"), ev.Type, ev.Source, msg)
	}
	return nil
}

func cmdNotify(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: kaleido-ctl notify <message>")
	}

	ctx := context.Background()
	message := strings.Join(args, " ")

	if _, err := apiClient.Notify.Send(ctx, message); err != nil {
		return err
	}

	fmt.Println("Notification sent")
	return nil
}
