package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName    = "Flashdesk"
	AppID      = "org.flashdesk.desktop"
	AppVersion = "0.3.0"

	envPrefix = "FLASHDESK"
)

type (
	Config struct {
		Storage
		Logging
		Backup
		Addons
	}

	Storage struct {
		BaseDir string // Folder holding prefs.db, the pid file and one folder per profile
		Profile string // Profile to open at startup, empty shows the chooser
	}
	Logging struct {
		Level string
		JSON  bool
	}
	Backup struct {
		Schedule string // Cron spec, empty disables periodic backups
		OnClose  bool
	}
	Addons struct {
		Enabled bool
	}
)

// New reads configuration from the environment (FLASHDESK_*) and, when
// flags is non-nil, from the command line. Flags win over the environment.
func New(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("base_dir", DefaultBaseDir())
	v.SetDefault("profile", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("backup_schedule", "@every 30m")
	v.SetDefault("backup_on_close", true)
	v.SetDefault("addons_enabled", true)

	if flags != nil {
		bindings := map[string]string{
			"base_dir":  "base",
			"profile":   "profile",
			"log_level": "log-level",
		}
		for key, flag := range bindings {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	base := v.GetString("base_dir")
	if base == "" {
		base = DefaultBaseDir()
	}

	return &Config{
		Storage: Storage{
			BaseDir: expandHome(base),
			Profile: v.GetString("profile"),
		},
		Logging: Logging{
			Level: v.GetString("log_level"),
			JSON:  v.GetBool("log_json"),
		},
		Backup: Backup{
			Schedule: v.GetString("backup_schedule"),
			OnClose:  v.GetBool("backup_on_close"),
		},
		Addons: Addons{
			Enabled: v.GetBool("addons_enabled"),
		},
	}, nil
}

// DefaultBaseDir is ~/Documents/Flashdesk on Windows and macOS and
// ~/Flashdesk elsewhere.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	switch runtime.GOOS {
	case "windows", "darwin":
		return filepath.Join(home, "Documents", AppName)
	default:
		return filepath.Join(home, AppName)
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
