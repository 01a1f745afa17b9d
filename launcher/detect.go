package launcher

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// ErrInstallNotFound is returned when no installation can be found.
var ErrInstallNotFound = errors.New("game installation not found")

// An Install is a game installation ready to launch.
type Install struct {
	Dir     string
	Exe     string
	Support string
	Build   *semver.Version
	X64     bool
}

var exePattern = regexp.MustCompile(`Base([0-9]+)[/\\]SC2(_x64)?(\.exe)?$`)

// Detect finds the installation described by the settings.
func Detect(s Settings) (Install, error) {
	dir := s.Dir
	if dir == "" {
		var err error

		dir, err = detectDir(runtime.GOOS, s.UseWine)
		if err != nil {
			return Install{}, err
		}
	}

	install, err := selectExe(dir, s.UseWine)
	if err != nil {
		return Install{}, err
	}

	install.Support = selectSupport(dir, install.X64)

	return install, nil
}

func detectDir(goos string, useWine bool) (string, error) {
	var candidates []string

	switch {
	case goos == "windows":
		candidates = []string{
			`C:\Program Files (x86)\StarCraft II`,
			`C:\Program Files\StarCraft II`,
		}
	case useWine:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(ErrInstallNotFound, err.Error())
		}

		candidates = []string{
			filepath.Join(home, ".wine/drive_c/Program Files (x86)/StarCraft II"),
			filepath.Join(home, ".wine/drive_c/Program Files/StarCraft II"),
		}
	}

	for _, c := range candidates {
		if isDir(c) {
			return c, nil
		}
	}

	return "", errors.Wrap(ErrInstallNotFound, "specify the installation directory")
}

// selectExe picks the executable of the highest build. On the same build,
// the 64-bit executable wins, unless the game runs through Wine.
func selectExe(dir string, useWine bool) (Install, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "Versions", "Base*", "SC2*"))
	if err != nil {
		return Install{}, errors.Wrap(err, "searching executables")
	}

	var best *Install

	for _, path := range matches {
		caps := exePattern.FindStringSubmatch(path)
		if caps == nil {
			continue
		}

		build, err := strconv.ParseUint(caps[1], 10, 64)
		if err != nil {
			continue
		}

		candidate := Install{
			Dir:   dir,
			Exe:   path,
			Build: semver.New(build, 0, 0, "", ""),
			X64:   caps[2] != "",
		}

		if useWine && candidate.X64 {
			continue
		}

		if best == nil || better(candidate, *best) {
			c := candidate
			best = &c
		}
	}

	if best == nil {
		return Install{}, errors.Wrapf(ErrInstallNotFound, "no executable in %s", dir)
	}

	return *best, nil
}

func better(a, b Install) bool {
	if !a.Build.Equal(b.Build) {
		return a.Build.GreaterThan(b.Build)
	}

	return a.X64 && !b.X64
}

func selectSupport(dir string, x64 bool) string {
	name := "Support"
	if x64 {
		name = "Support64"
	}

	path := filepath.Join(dir, name)
	if !isDir(path) {
		return ""
	}

	return path
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
