//go:build statsview

package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	statsviewAddress = "localhost:12600"
	statsviewURL     = "/debug/statsview"
)

// launchStatsview starts the runtime statistics server in a new goroutine.
func launchStatsview(output io.Writer) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(statsviewAddress))
		mgr := statsview.New()
		mgr.Start()
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", statsviewAddress, statsviewURL)
}

func statsviewAvailable() bool {
	return true
}
