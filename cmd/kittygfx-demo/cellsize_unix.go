//go:build unix

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ioctlCellSize reads the terminal's pixel and cell dimensions via
// TIOCGWINSZ and derives the pixel size of a single cell. Adapted from
// the teacher's pkg/image/pixelsize_unix.go.
func ioctlCellSize() (cellW, cellH int, err error) {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return 0, 0, fmt.Errorf("open /dev/tty: %w", err)
	}
	defer f.Close()

	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("TIOCGWINSZ: %w", err)
	}
	if ws.Xpixel == 0 || ws.Ypixel == 0 || ws.Col == 0 || ws.Row == 0 {
		return 0, 0, fmt.Errorf("TIOCGWINSZ returned zero dimensions")
	}

	cellW = int(ws.Xpixel) / int(ws.Col)
	cellH = int(ws.Ypixel) / int(ws.Row)
	if cellW <= 0 || cellH <= 0 {
		return 0, 0, fmt.Errorf("computed cell size is zero or negative")
	}
	return cellW, cellH, nil
}

// ioctlGridSize reads the terminal's column/row count via TIOCGWINSZ.
func ioctlGridSize() (cols, rows int, err error) {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return 0, 0, fmt.Errorf("open /dev/tty: %w", err)
	}
	defer f.Close()

	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("TIOCGWINSZ: %w", err)
	}
	if ws.Col == 0 || ws.Row == 0 {
		return 0, 0, fmt.Errorf("TIOCGWINSZ returned zero dimensions")
	}
	return int(ws.Col), int(ws.Row), nil
}
