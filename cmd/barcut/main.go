// BarCut - Steel Bar Cutting Planner
//
// A command line tool that extracts cut pieces from structural models and
// nests them onto stock bars, sharing saw cuts between mitered ends.
//
// Build:
//   go build -o barcut ./cmd/barcut
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o barcut.exe ./cmd/barcut
//   GOOS=darwin  GOARCH=arm64 go build -o barcut-darwin ./cmd/barcut

package main

import "github.com/piwi3910/BarCut/internal/cli"

func main() {
	cli.Execute()
}
