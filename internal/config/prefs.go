package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jarvis/internal/session"
)

// Prefs are small user choices that survive restarts.
type Prefs struct {
	Theme session.Theme `yaml:"theme"`
}

func LoadPrefs(path string) (Prefs, error) {
	p := Prefs{Theme: session.ThemeDefault}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read prefs: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prefs{Theme: session.ThemeDefault}, fmt.Errorf("parse prefs: %w", err)
	}
	p.Theme = session.ParseTheme(string(p.Theme))
	return p, nil
}

func SavePrefs(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	// replaced atomically
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return os.Rename(tmp, path)
}
