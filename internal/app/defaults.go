package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the locations jasper reads its config from and keeps its data in.
type Paths struct {
	ConfigFile string
	Home       string
}

// DefaultPaths resolves Paths from the environment:
//
//	JASPER_CONFIG_PATH  config file ($XDG_CONFIG_HOME/jasper.toml, else ~/.config/jasper.toml)
//	JASPER_HOME         data directory ($XDG_DATA_HOME/jasper, else ~/.local/share/jasper)
func DefaultPaths() (Paths, error) {
	return resolvePaths(os.Getenv, os.UserHomeDir)
}

func resolvePaths(getenv func(string) string, userHome func() (string, error)) (Paths, error) {
	p := Paths{
		ConfigFile: getenv("JASPER_CONFIG_PATH"),
		Home:       getenv("JASPER_HOME"),
	}
	if p.ConfigFile != "" && p.Home != "" {
		return p, nil
	}

	var home string
	xdgDir := func(env string, fallback ...string) (string, error) {
		if dir := getenv(env); dir != "" {
			return dir, nil
		}
		if home == "" {
			h, err := userHome()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			home = h
		}
		return filepath.Join(append([]string{home}, fallback...)...), nil
	}

	if p.ConfigFile == "" {
		dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
		if err != nil {
			return Paths{}, err
		}
		p.ConfigFile = filepath.Join(dir, "jasper.toml")
	}
	if p.Home == "" {
		dir, err := xdgDir("XDG_DATA_HOME", ".local", "share")
		if err != nil {
			return Paths{}, err
		}
		p.Home = filepath.Join(dir, "jasper")
	}
	return p, nil
}
