// Package web holds the dashboard page of the monitor.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv makes the monitor serve its pages from the source tree, so
// that the dashboard can be edited without rebuilding the simulator.
const DevModeEnv = "PROTOENGINE_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the dashboard files.
func GetAssets() http.FileSystem {
	if devMode() {
		dir := sourceDir()
		fmt.Fprintf(os.Stderr, "Serving monitor pages from %s\n", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func sourceDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the monitor pages")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))

	return err == nil && on
}
