// cmd/pythia/main.go
package main

import (
	"github.com/joho/godotenv"
	cmd "github.com/mwiater/pythia/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	loadEnv        = godotenv.Load
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
)

// main starts the pythia CLI application by delegating to the cobra root
// command defined in the pythia package. A .env file next to the binary can
// supply credential overrides before the config loads; a missing .env is
// fine, secrets can come from the real environment.
func main() {
	_ = loadEnv()
	setVersionInfo(version, commit, date)
	executeCmd()
}
