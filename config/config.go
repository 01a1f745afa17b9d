// Package config reads the settings of sc2melee from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/launcher"
)

// Environment variables.
const (
	EnvDir         = "SC2_DIR"
	EnvUseWine     = "SC2_USE_WINE"
	EnvBasePort    = "SC2_BASE_PORT"
	EnvMap         = "SC2_MAP"
	EnvRealtime    = "SC2_REALTIME"
	EnvMonitor     = "SC2_MONITOR"
	EnvMonitorPort = "SC2_MONITOR_PORT"
	EnvRecord      = "SC2_RECORD"
	EnvLogLevel    = "SC2_LOG_LEVEL"
)

// DefaultEnvFile is the file Load reads when no file is given.
const DefaultEnvFile = ".env"

// Config holds the settings of a run.
type Config struct {
	Dir         string
	UseWine     bool
	BasePort    int32
	Map         string
	Realtime    bool
	Monitor     bool
	MonitorPort int
	Record      string
	LogLevel    logrus.Level
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BasePort: launcher.DefaultBasePort,
		LogLevel: logrus.InfoLevel,
	}
}

// Load reads the given .env files into the environment and builds the
// configuration from it. Variables already set take precedence over the
// files. Without files, .env is read if it exists.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			files = []string{DefaultEnvFile}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Config{}, errors.Wrap(err, "load env files")
		}
	}

	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	r := reader{lookup: lookup}

	c.Dir = r.str(EnvDir)
	c.UseWine = r.boolean(EnvUseWine)
	c.BasePort = int32(r.integer(EnvBasePort, int(c.BasePort)))
	c.Map = r.str(EnvMap)
	c.Realtime = r.boolean(EnvRealtime)
	c.Monitor = r.boolean(EnvMonitor)
	c.MonitorPort = r.integer(EnvMonitorPort, 0)
	c.Record = r.str(EnvRecord)

	if s := r.str(EnvLogLevel); s != "" {
		level, err := logrus.ParseLevel(s)
		if err != nil {
			r.fail(EnvLogLevel, err)
		} else {
			c.LogLevel = level
		}
	}

	if r.err != nil {
		return Config{}, r.err
	}

	if c.BasePort <= 0 {
		return Config{}, errors.Errorf("%s must be positive, got %d", EnvBasePort, c.BasePort)
	}

	return c, nil
}

// Launcher returns the launcher settings of the configuration.
func (c Config) Launcher() launcher.Settings {
	s := launcher.DefaultSettings()
	s.Dir = c.Dir
	s.UseWine = c.UseWine
	s.BasePort = c.BasePort

	return s
}

// Game returns the game settings of the configuration.
func (c Config) Game() game.Settings {
	return game.Settings{Map: c.Map, Realtime: c.Realtime}
}

// reader keeps the first error met while reading variables.
type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) str(key string) string {
	v, _ := r.lookup(key)
	return strings.TrimSpace(v)
}

func (r *reader) boolean(key string) bool {
	s := r.str(key)
	if s == "" {
		return false
	}

	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		r.fail(key, err)
	}

	return v
}

func (r *reader) integer(key string, def int) int {
	s := r.str(key)
	if s == "" {
		return def
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		r.fail(key, err)
		return def
	}

	return v
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = errors.Wrapf(err, "invalid %s", key)
	}
}
