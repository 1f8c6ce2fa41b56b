// kittygfx-demo is a headless harness for the graphics engine: it reads
// a stream of Kitty graphics escape sequences (ESC _ G ... ESC \) from a
// file or stdin, feeds each one through graphics.Engine.ProcessCommand,
// and prints the wire responses plus a final stats summary.
//
// Usage:
//
//	kittygfx-demo [flags] [input-file]
//
// Flags:
//
//	-config string  Path to a TOML configuration file (default: built-in defaults)
//	-verbose        Enable debug-level logging
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tinyland-lab/kittygfx/pkg/graphics"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a TOML configuration file")
		verbose    = flag.Bool("verbose", false, "Enable debug-level logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kittygfx-demo: %v\n", err)
		os.Exit(1)
	}

	geometry := newHostGeometry(logger)
	blitter := &logBlitter{log: logger}

	engine, err := graphics.NewEngine(cfg, geometry, blitter, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kittygfx-demo: create engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	in, err := openInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "kittygfx-demo: %v\n", err)
		os.Exit(1)
	}
	defer in.Close()

	n := 0
	for _, cmdBytes := range splitCommands(in) {
		n++
		resp := engine.ProcessCommand(cmdBytes)
		if resp != "" {
			fmt.Printf("%q\n", resp)
		}
	}

	stats := engine.Stats()
	logger.Info("done",
		"commands", n,
		"images", stats.ImageCount,
		"placements", stats.PlacementCount,
		"disk_bytes", stats.DiskBytes,
		"ram_bytes", stats.RamBytes,
		"blits", blitter.summary(),
	)
}

func loadConfig(path string) (*graphics.Config, error) {
	if path == "" {
		return graphics.DefaultConfig(), nil
	}
	return graphics.LoadConfig(path)
}

func openInput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

// splitCommands scans in for consecutive "\x1b_G...\x1b\\" escape
// sequences, returning each complete command's bytes (sentinel byte
// through payload, sentinel stripped at either end) in order.
func splitCommands(r *os.File) [][]byte {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(scanCommand)

	var out [][]byte
	for scanner.Scan() {
		b := make([]byte, len(scanner.Bytes()))
		copy(b, scanner.Bytes())
		out = append(out, b)
	}
	return out
}

const (
	escPrefix = "\x1b_G"
	escSuffix = "\x1b\\"
)

// scanCommand is a bufio.SplitFunc that finds the next ESC-prefixed
// graphics command and returns its body (the "G..." payload, without
// the leading ESC or trailing ST).
func scanCommand(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := indexOf(data, escPrefix)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	bodyStart := start + len(escPrefix) - 1 // keep the 'G' sentinel

	end := indexOf(data[bodyStart:], escSuffix)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	token = data[bodyStart : bodyStart+end]
	advance = bodyStart + end + len(escSuffix)
	return advance, token, nil
}

func indexOf(haystack []byte, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}
