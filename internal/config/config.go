// Package config loads jarvis configuration: defaults, then an optional
// YAML file, then .env, then the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jarvis/internal/intent"
	"jarvis/internal/llm"
)

type Config struct {
	Log   string `yaml:"log"`
	Theme string `yaml:"theme"`

	LLM      llm.Config     `yaml:"llm"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Auth     AuthConfig     `yaml:"auth"`
	Tasks    TasksConfig    `yaml:"tasks"`
	Calendar CalendarConfig `yaml:"calendar"`
	Speech   SpeechConfig   `yaml:"speech"`
	IPC      IPCConfig      `yaml:"ipc"`
	Bus      BusConfig      `yaml:"bus"`

	ScanRoot        string            `yaml:"scan_root"`
	Weather         intent.Weather    `yaml:"weather"`
	Apps            map[string]string `yaml:"apps"`
	MetricsInterval time.Duration     `yaml:"metrics_interval"`
	PrefsPath       string            `yaml:"prefs_path"`
}

type BridgeConfig struct {
	// URL of a jarvis-bridge websocket. "local" runs the shell bridge
	// in-process and "" disables OS control.
	URL     string        `yaml:"url"`
	Listen  string        `yaml:"listen"`
	Timeout time.Duration `yaml:"timeout"`
}

type SupabaseConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"-"`
}

const (
	AuthStatic   = "static"
	AuthSupabase = "supabase"

	TasksSQLite   = "sqlite"
	TasksSupabase = "supabase"
	TasksMemory   = "memory"

	BridgeLocal = "local"
)

type AuthConfig struct {
	Provider      string `yaml:"provider"`
	UserID        string `yaml:"user_id"`
	Email         string `yaml:"email"`
	ProviderToken string `yaml:"-"`
	AutoSignIn    bool   `yaml:"auto_sign_in"`
}

type TasksConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type CalendarConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type SpeechConfig struct {
	WhisperModel string `yaml:"whisper_model"`
	Language     string `yaml:"language"`
	Voice        string `yaml:"voice"`
	Rate         int    `yaml:"rate"`
	// Cue is an mp3 played before listening; empty plays a tone.
	Cue string `yaml:"cue"`
	// Duck lowers other applications while speaking.
	Duck bool `yaml:"duck"`
}

type IPCConfig struct {
	Socket string `yaml:"socket"`
}

type BusConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Dir is the per-user jarvis directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "jarvis")
}

func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

func Default() *Config {
	dir := Dir()
	return &Config{
		Log:   "info",
		Theme: "default",
		LLM: llm.Config{
			Provider: llm.ProviderGemini,
			Timeout:  60 * time.Second,
		},
		Bridge: BridgeConfig{
			URL:     BridgeLocal,
			Listen:  "127.0.0.1:8093",
			Timeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			Provider:   AuthStatic,
			UserID:     "local",
			AutoSignIn: true,
		},
		Tasks: TasksConfig{
			Backend: TasksSQLite,
			Path:    filepath.Join(dir, "tasks.db"),
		},
		Calendar: CalendarConfig{Enabled: true},
		Speech: SpeechConfig{
			WhisperModel: "third_party/whisper.cpp/models/ggml-medium.bin",
			Language:     "auto",
			Voice:        "en-gb",
			Rate:         175,
			Duck:         true,
		},
		IPC:             IPCConfig{Socket: "/tmp/jarvis.sock"},
		Bus:             BusConfig{Name: "JARVIS"},
		ScanRoot:        "/",
		Weather:         intent.DefaultWeather,
		MetricsInterval: 3 * time.Second,
		PrefsPath:       filepath.Join(dir, "prefs.yaml"),
	}
}

// Load reads path over the defaults. A missing file is not an error. envFile
// is loaded into the process environment first when it exists.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Log, "JARVIS_LOG")
	set(&c.Theme, "JARVIS_THEME")
	set(&c.LLM.Provider, "JARVIS_LLM_PROVIDER")
	set(&c.LLM.Model, "JARVIS_LLM_MODEL")
	set(&c.LLM.Proxy, "JARVIS_PROXY")
	set(&c.Bridge.URL, "JARVIS_BRIDGE_URL")
	set(&c.Supabase.URL, "SUPABASE_URL", "VITE_SUPABASE_URL")
	set(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY")
	set(&c.Auth.Provider, "JARVIS_AUTH")
	set(&c.Auth.UserID, "JARVIS_USER_ID")
	set(&c.Auth.ProviderToken, "JARVIS_GOOGLE_TOKEN")
	set(&c.Tasks.Backend, "JARVIS_TASKS")
	set(&c.Tasks.Path, "JARVIS_TASKS_DB")
	set(&c.Speech.WhisperModel, "JARVIS_WHISPER_MODEL")
	set(&c.IPC.Socket, "JARVIS_SOCKET")
	set(&c.Bus.URL, "JARVIS_BUS_URL")
	set(&c.ScanRoot, "JARVIS_SCAN_ROOT")

	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderOpenAI:
		set(&c.LLM.APIKey, "OPENAI_API_KEY")
	default:
		set(&c.LLM.APIKey, "GEMINI_API_KEY", "VITE_GEMINI_API_KEY")
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "", llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderNone:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Tasks.Backend {
	case TasksSQLite, TasksSupabase, TasksMemory:
	default:
		return fmt.Errorf("unknown tasks backend %q", c.Tasks.Backend)
	}
	switch c.Auth.Provider {
	case AuthStatic, AuthSupabase:
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}
	if (c.Tasks.Backend == TasksSupabase || c.Auth.Provider == AuthSupabase) && (c.Supabase.URL == "" || c.Supabase.AnonKey == "") {
		return errors.New("supabase url and anon key must be set")
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics interval must be positive, got %s", c.MetricsInterval)
	}
	return nil
}

// Save writes the file-backed part of the configuration. Secrets are never
// written.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
