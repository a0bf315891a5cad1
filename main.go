// Package main is the entry point for the bginsights CLI tool, which imports
// board game match history and computes per-game group insights.
package main

import "github.com/pable/bg-insights/cmd"

func main() {
	cmd.Execute()
}
