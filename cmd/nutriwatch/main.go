// Package main is the entry point for the nutriwatch CLI.
package main

import "github.com/blackwell-systems/nutriwatch/internal/app"

// version is set at build time via ldflags.
var version = "dev"

func main() {
	app.SetVersion(version)
	app.Execute()
}
