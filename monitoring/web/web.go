// Package web holds the dashboard page served by the monitor.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
)

// DevDirEnv names a directory to serve the dashboard from instead of the
// embedded copy. Edits then show up without rebuilding.
const DevDirEnv = "SIMRADIO_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the dashboard files.
func GetAssets() http.FileSystem {
	if dir := os.Getenv(DevDirEnv); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			log.Printf("[INFO] serving dashboard from %s", dir)
			return http.Dir(dir)
		}

		log.Printf("[WARN] %s=%q is not a directory, using embedded dashboard",
			DevDirEnv, dir)
	}

	sub, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}
