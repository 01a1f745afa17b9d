// Package web holds the monitoring page.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DevModeEnv names the environment variable that, when true, makes the
// monitor serve the page from the source tree so that edits show up without
// rebuilding.
const DevModeEnv = "SC2MELEE_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// Assets returns the files of the monitoring page.
func Assets() http.FileSystem {
	if dir, ok := sourceDir(); ok && devMode() {
		logrus.WithField("dir", dir).Info("serving the monitor page from source")
		return http.Dir(dir)
	}

	page, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(page)
}

func devMode() bool {
	value, found := os.LookupEnv(DevModeEnv)
	if !found {
		return false
	}

	on, err := strconv.ParseBool(value)
	if err != nil {
		logrus.WithField("value", value).
			Warnf("%s is not a boolean, serving the embedded page", DevModeEnv)
		return false
	}

	return on
}

// sourceDir finds the page next to this file.
func sourceDir() (string, bool) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}

	return filepath.Join(filepath.Dir(file), "dist"), true
}
