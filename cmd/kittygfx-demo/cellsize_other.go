//go:build !unix

package main

import "fmt"

func ioctlCellSize() (cellW, cellH int, err error) {
	return 0, 0, fmt.Errorf("TIOCGWINSZ not available on this platform")
}

func ioctlGridSize() (cols, rows int, err error) {
	return 0, 0, fmt.Errorf("TIOCGWINSZ not available on this platform")
}
