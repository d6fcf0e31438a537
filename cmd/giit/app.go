package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/giit/pkg/repo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// app carries the state shared by one invocation's commands.
type app struct {
	v          *viper.Viper
	logOut     io.Writer
	configFile string
	repoDir    string
	verbose    bool
}

func newApp(logOut io.Writer) *app {
	return &app{v: viper.New(), logOut: logOut, repoDir: "."}
}

func (a *app) initConfig() error {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.AddConfigPath(configDir())
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix("GIIT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault("log_level", "warn")
	a.v.SetDefault("user.name", "")
	a.v.SetDefault("user.email", "")

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	log.SetOutput(a.logOut)
	if a.verbose {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	level, err := log.ParseLevel(a.v.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	log.SetLevel(level)
	return nil
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "giit")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "giit")
	}
	return ".giit"
}

func (a *app) openRepo() (*repo.Repo, error) {
	return repo.Open(a.repoDir)
}

// path resolves p against the --repo directory.
func (a *app) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.repoDir, p)
}

// identity formats the configured user as "Name <email>". Viper settings
// win; the repository's [user] section fills whatever they leave empty.
func (a *app) identity(r *repo.Repo) string {
	name := strings.TrimSpace(a.v.GetString("user.name"))
	email := strings.TrimSpace(a.v.GetString("user.email"))
	if name == "" {
		if v, ok := r.Config.Value("user", "name"); ok {
			name = strings.TrimSpace(v)
		}
	}
	if email == "" {
		if v, ok := r.Config.Value("user", "email"); ok {
			email = strings.TrimSpace(v)
		}
	}
	if name == "" {
		name = "unknown"
	}
	if email == "" {
		return name
	}
	return name + " <" + email + ">"
}
