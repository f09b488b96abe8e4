package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "MINIPOLAR"
	configFileName = "minipolar"

	defaultInputDir    = "./src"
	defaultOutputDir   = "./dist"
	defaultFileTimeout = 30 * time.Second
	defaultPreviewAddr = "127.0.0.1:8080"
)

// Config is the resolved configuration. Precedence, lowest first: built-in
// default, config file, MINIPOLAR_* environment, command-line flag.
type Config struct {
	Input            string
	Output           string
	Workers          int
	FileTimeout      time.Duration
	Exclude          []string
	RespectGitignore bool
	DefaultIgnores   bool
	MaxFileSize      int64
	Precompress      bool
	Incremental      bool
	Manifest         string
	Watch            bool
	// SyncInterval in seconds; 0 disables periodic reconcile.
	SyncInterval int
	LogLevel     string
	LogFile      string

	Addr     string
	CacheAge time.Duration
}

// registerBuildFlags adds the flags shared by every command that builds.
func registerBuildFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", defaultInputDir, "Input root directory")
	flags.StringP("output", "o", defaultOutputDir, "Output root directory")
	flags.IntP("workers", "w", 0, "Parallel workers (0 = number of CPUs, 1 = sequential)")
	flags.Duration("file-timeout", defaultFileTimeout, "Per-file minification timeout (0 disables)")
	flags.StringSlice("exclude", nil, "Extra ignore pattern, doublestar syntax (repeatable)")
	flags.Bool("respect-gitignore", false, "Also apply the input root's .gitignore")
	flags.Bool("default-ignores", false, "Skip VCS metadata, editor backups and OS junk files")
	flags.Int64("max-file-size", 0, "Copy files larger than this many bytes instead of minifying (0 = unlimited)")
	flags.Bool("precompress", false, "Write a brotli .br sibling next to every minified file")
	flags.Bool("incremental", false, "Skip files whose output is newer than the input")
	flags.String("manifest", "", "Write a build manifest (.json, .yaml or .yml)")
	flags.Int("sync-interval", 0, "Seconds between output reconcile runs in watch mode (0 disables)")
}

// registerGlobalFlags adds flags every command understands.
func registerGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file (default: ./minipolar.* or ~/.config/minipolar/minipolar.*)")
	flags.String("log-level", "info", "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Log file path (default: stderr)")
}

// configKey maps a flag name to its viper key: "file-timeout" -> "file_timeout".
func configKey(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

// newViper binds every flag of the command, the environment and the config
// file into a fresh viper instance.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	var bindErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name == "config" {
			return
		}
		if err := v.BindPFlag(configKey(flag.Name), flag); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding flag %s: %w", flag.Name, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfgFile, _ := flags.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "minipolar"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// loadConfig resolves the configuration for a command.
func loadConfig(flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Input:            v.GetString("input"),
		Output:           v.GetString("output"),
		Workers:          v.GetInt("workers"),
		FileTimeout:      v.GetDuration("file_timeout"),
		Exclude:          v.GetStringSlice("exclude"),
		RespectGitignore: v.GetBool("respect_gitignore"),
		DefaultIgnores:   v.GetBool("default_ignores"),
		MaxFileSize:      v.GetInt64("max_file_size"),
		Precompress:      v.GetBool("precompress"),
		Incremental:      v.GetBool("incremental"),
		Manifest:         v.GetString("manifest"),
		Watch:            v.GetBool("watch"),
		SyncInterval:     v.GetInt("sync_interval"),
		LogLevel:         v.GetString("log_level"),
		LogFile:          v.GetString("log_file"),
		Addr:             v.GetString("addr"),
		CacheAge:         v.GetDuration("cache_age"),
	}, nil
}

// withRoots applies positional [input] [output] arguments.
func (c Config) withRoots(args []string) Config {
	if len(args) > 0 {
		c.Input = args[0]
	}
	if len(args) > 1 {
		c.Output = args[1]
	}
	return c
}
