package app

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolvePaths(t *testing.T) {
	home := func() (string, error) { return "/home/ada", nil }

	tests := []struct {
		name string
		env  map[string]string
		want Paths
	}{
		{
			name: "explicit overrides",
			env:  map[string]string{"JASPER_CONFIG_PATH": "/etc/jasper.toml", "JASPER_HOME": "/srv/jasper"},
			want: Paths{ConfigFile: "/etc/jasper.toml", Home: "/srv/jasper"},
		},
		{
			name: "home directory fallback",
			want: Paths{
				ConfigFile: filepath.Join("/home/ada", ".config", "jasper.toml"),
				Home:       filepath.Join("/home/ada", ".local", "share", "jasper"),
			},
		},
		{
			name: "xdg directories",
			env:  map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			want: Paths{
				ConfigFile: filepath.Join("/xdg/config", "jasper.toml"),
				Home:       filepath.Join("/xdg/data", "jasper"),
			},
		},
		{
			name: "override wins over xdg",
			env:  map[string]string{"JASPER_HOME": "/srv/jasper", "XDG_DATA_HOME": "/xdg/data"},
			want: Paths{
				ConfigFile: filepath.Join("/home/ada", ".config", "jasper.toml"),
				Home:       "/srv/jasper",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			got, err := resolvePaths(getenv, home)
			if err != nil {
				t.Fatalf("resolvePaths() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePaths() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolvePaths_NoHome(t *testing.T) {
	noHome := func() (string, error) { return "", errors.New("no home") }

	if _, err := resolvePaths(func(string) string { return "" }, noHome); err == nil {
		t.Error("resolvePaths() succeeded without a home directory")
	}

	env := map[string]string{"JASPER_CONFIG_PATH": "/c.toml", "JASPER_HOME": "/h"}
	if _, err := resolvePaths(func(k string) string { return env[k] }, noHome); err != nil {
		t.Errorf("home directory consulted despite overrides: %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("JASPER_CONFIG_PATH", "/custom/config.toml")
	t.Setenv("JASPER_HOME", "/custom/jasper")

	p, err := DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths() error = %v", err)
	}
	if p.ConfigFile != "/custom/config.toml" || p.Home != "/custom/jasper" {
		t.Errorf("DefaultPaths() = %+v", p)
	}
}
