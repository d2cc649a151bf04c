package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings are the resolved application settings used by the CLI commands.
type Settings struct {
	DatabasePath string
	ProjectID    string
	ActorID      string
	BatchSize    int
}

// Load resolves settings from Viper (config file or REQWELL_ env vars) with
// sensible fallbacks: the database lives under the user config directory, the
// actor defaults to the OS user and the project to "default".
func Load() Settings {
	s := Settings{
		DatabasePath: viper.GetString("database.path"),
		ProjectID:    viper.GetString("project.id"),
		ActorID:      viper.GetString("actor.id"),
		BatchSize:    viper.GetInt("import.batch_size"),
	}

	if s.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		s.DatabasePath = filepath.Join(home, ".config", "reqwell", "reqwell.db")
	} else {
		s.DatabasePath = ExpandPath(s.DatabasePath)
	}

	if s.ProjectID == "" {
		s.ProjectID = "default"
	}

	if s.ActorID == "" {
		if u := os.Getenv("USER"); u != "" {
			s.ActorID = u
		} else {
			s.ActorID = "reqwell"
		}
	}

	return s
}
