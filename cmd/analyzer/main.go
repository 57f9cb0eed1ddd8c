// Command analyzer edits analysis records stored as JSON files and renders
// their reports without a running server.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"company_analyzer/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(logging.LoadConfigFromEnv())

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
