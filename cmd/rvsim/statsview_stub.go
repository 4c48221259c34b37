//go:build !statsview

package main

import "io"

func launchStatsview(io.Writer) {}

func statsviewAvailable() bool {
	return false
}
