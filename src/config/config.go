package config

import (
	"io"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mosaicnetworks/floodnode/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultConfigName is the base name of the optional configuration file in
	// the data directory (floodnode.toml, floodnode.json, ...).
	DefaultConfigName = "floodnode"

	// InfoLogFile and DebugLogFile are the names of the per-level log files
	// written in LogDir.
	InfoLogFile  = "info.log"
	DebugLogFile = "debug.log"
)

// Default configuration values.
const (
	DefaultLogLevel    = "info"
	DefaultAgent       = "broadcast"
	DefaultServiceAddr = ""
	DefaultLogDir      = ""
)

// Config contains all the configuration properties of a node.
type Config struct {
	// DataDir is the top-level directory containing the configuration file.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogDir, when set, is where info.log and debug.log are written on top of
	// stderr.
	LogDir string `mapstructure:"log-dir"`

	// Agent is the name of the algorithm run by the node.
	Agent string `mapstructure:"agent"`

	// ServiceAddr is the address:port of the optional HTTP service exposing
	// stats and metrics. The service is disabled when empty.
	ServiceAddr string `mapstructure:"service-listen"`

	logger *logrus.Logger
	out    io.Writer
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:     DefaultDataDir(),
		LogLevel:    DefaultLogLevel,
		LogDir:      DefaultLogDir,
		Agent:       DefaultAgent,
		ServiceAddr: DefaultServiceAddr,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetLogOutput overrides the destination of console logs. It must be called
// before the first call to Logger.
func (c *Config) SetLogOutput(w io.Writer) {
	c.out = w
}

// Logger returns a formatted logrus Entry, with prefix set to "floodnode".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		if c.out != nil {
			c.logger.Out = c.out
		}
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogDir != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				lfshook.PathMap{
					logrus.InfoLevel:  filepath.Join(c.LogDir, InfoLogFile),
					logrus.DebugLevel: filepath.Join(c.LogDir, DebugLogFile),
				},
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "floodnode")
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Floodnode")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Floodnode")
		} else {
			return filepath.Join(home, ".floodnode")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
