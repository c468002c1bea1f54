package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/corknet/corkboard/src/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames, relative to the datadir.
const (
	// DefaultUsersFile is the default name of the file containing the
	// username->password map.
	DefaultUsersFile = "users.json"

	// DefaultPeersFile is the default name of the file containing the static
	// peer list.
	DefaultPeersFile = "peers.json"
)

// Default configuration values.
const (
	DefaultLogLevel    = "debug"
	DefaultNodeID      = "n1"
	DefaultBindAddr    = "127.0.0.1:5001"
	DefaultServiceAddr = "127.0.0.1:8000"

	// DefaultHeartbeatTimeout is the interval between anti-entropy rounds.
	DefaultHeartbeatTimeout = 2000 * time.Millisecond

	// DefaultDialTimeout bounds outbound connections to peers.
	DefaultDialTimeout = 1000 * time.Millisecond

	// DefaultSyncTimeout bounds the read of a gossip reply from a peer.
	DefaultSyncTimeout = 3000 * time.Millisecond

	// DefaultRequestTimeout bounds the server-side read of one inbound
	// request.
	DefaultRequestTimeout = 5000 * time.Millisecond
)

// Config contains all the configuration properties of a corkboard node.
type Config struct {
	// DataDir is the top-level directory containing corkboard configuration
	// and data
	DataDir string `mapstructure:"datadir"`

	// NodeID is the unique identifier of this node. It prefixes the ids of all
	// messages created here, so no two nodes of the same deployment may share
	// one.
	NodeID string `mapstructure:"node-id"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of all log output.
	LogFile string `mapstructure:"log-file"`

	// BindAddr is the local address:port where this node listens for clients
	// and for replication traffic from other nodes.
	BindAddr string `mapstructure:"listen"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// HeartbeatTimeout is the interval of the anti-entropy gossip timer.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// DialTimeout is the timeout for opening a connection to a peer.
	DialTimeout time.Duration `mapstructure:"dial-timeout"`

	// SyncTimeout is the timeout for reading a gossip reply from a peer.
	SyncTimeout time.Duration `mapstructure:"sync-timeout"`

	// RequestTimeout is the timeout for reading a single inbound request.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:          DefaultDataDir(),
		NodeID:           DefaultNodeID,
		LogLevel:         DefaultLogLevel,
		BindAddr:         DefaultBindAddr,
		ServiceAddr:      DefaultServiceAddr,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		DialTimeout:      DefaultDialTimeout,
		SyncTimeout:      DefaultSyncTimeout,
		RequestTimeout:   DefaultRequestTimeout,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// SetDataDir sets the top-level corkboard directory.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
}

// UsersFile returns the full path of the file containing the credentials map.
func (c *Config) UsersFile() string {
	return filepath.Join(c.DataDir, DefaultUsersFile)
}

// PeersFile returns the full path of the file containing the static peer list.
func (c *Config) PeersFile() string {
	return filepath.Join(c.DataDir, DefaultPeersFile)
}

// Logger returns a formatted logrus Entry, with prefix set to "corkboard".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{}
			for _, level := range logrus.AllLevels {
				if level <= c.logger.Level {
					pathMap[level] = c.LogFile
				}
			}
			c.logger.Hooks.Add(lfshook.NewHook(
				pathMap,
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "corkboard")
}

// DefaultDataDir return the default directory name for top-level corkboard
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".corkboard")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "CORKBOARD")
		} else {
			return filepath.Join(home, ".corkboard")
		}
	}
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
