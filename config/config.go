package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

const (
	defaultRelayURL       = "ws://localhost:8080"
	defaultRelayListen    = ":8080"
	defaultDifficulty     = 3
	defaultMiningReward   = 50
	defaultMiningInterval = 10 * time.Second
	defaultStartDelay     = 3 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultIdleChance     = 0.3
	defaultKeyFilename    = "node.key"
	defaultChainDirname   = "chain"

	// maxDifficulty is the length of a hex encoded SHA-256 digest.
	maxDifficulty = 64
)

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `long:"loglevel" description:"Logging level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	Format string `long:"logformat" description:"Log output format" choice:"text" choice:"json"`
}

// NewLogger builds a logger from the config.
func (c LogConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	switch c.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// Node is the configuration of the node binary.
type Node struct {
	ConfigFile string `long:"configfile" description:"Path to an INI configuration file"`

	ID       string `long:"id" description:"Node name used in logs and metrics, defaults to an address prefix"`
	RelayURL string `long:"relay" description:"Websocket URL of the relay"`
	DataDir  string `long:"datadir" description:"Directory holding the chain database and wallet key, everything is kept in memory when empty"`
	KeyFile  string `long:"keyfile" description:"Path to the hex encoded wallet key, defaults to node.key inside datadir"`

	Difficulty       int     `long:"difficulty" description:"Number of leading zero hex digits a block hash must have"`
	MiningReward     float64 `long:"reward" description:"Amount credited to the miner of each block"`
	StrictSignatures bool    `long:"strictsigs" description:"Verify transaction signatures against the sender key instead of only requiring one"`

	MiningInterval   time.Duration `long:"mininginterval" description:"How often to consider mining a block"`
	IdleMiningChance float64       `long:"idlechance" description:"Probability of mining an empty block on a tick with nothing pending"`
	StartDelay       time.Duration `long:"startdelay" description:"Delay before the first mining tick"`
	ReconnectDelay   time.Duration `long:"reconnect" description:"Delay between relay connection attempts"`
	NoMining         bool          `long:"nomining" description:"Validate and relay only, never mine"`

	APIListen string `long:"apilisten" description:"Listen address of the HTTP API, disabled when empty"`
	NoShell   bool   `long:"noshell" description:"Do not read commands from stdin"`

	Log LogConfig `group:"Logging"`
}

// DefaultNode returns the node configuration with every default set.
func DefaultNode() Node {
	return Node{
		RelayURL:         defaultRelayURL,
		Difficulty:       defaultDifficulty,
		MiningReward:     defaultMiningReward,
		MiningInterval:   defaultMiningInterval,
		IdleMiningChance: defaultIdleChance,
		StartDelay:       defaultStartDelay,
		ReconnectDelay:   defaultReconnectDelay,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadNode parses args over the defaults. Options from --configfile are
// applied first and the command line overrides them.
func LoadNode(args []string) (*Node, error) {
	cfg := DefaultNode()
	if err := load(&cfg, &cfg.ConfigFile, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the options make sense together and fills in
// derived paths.
func (c *Node) Validate() error {
	if c.Difficulty < 0 || c.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty must be within [0, %d], got %d", maxDifficulty, c.Difficulty)
	}
	if !(c.MiningReward > 0) || math.IsInf(c.MiningReward, 0) {
		return fmt.Errorf("mining reward must be positive, got %v", c.MiningReward)
	}
	if c.MiningInterval <= 0 {
		return errors.New("mining interval must be positive")
	}
	if c.ReconnectDelay <= 0 {
		return errors.New("reconnect delay must be positive")
	}
	if c.IdleMiningChance < 0 || c.IdleMiningChance > 1 {
		return fmt.Errorf("idle mining chance must be within [0, 1], got %v", c.IdleMiningChance)
	}
	if c.RelayURL == "" {
		return errors.New("relay URL is required")
	}
	if c.KeyFile == "" && c.DataDir != "" {
		c.KeyFile = filepath.Join(c.DataDir, defaultKeyFilename)
	}
	return nil
}

// ChainDir is where the chain database lives, or "" for an in-memory
// chain.
func (c *Node) ChainDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, defaultChainDirname)
}

// Relay is the configuration of the relay binary.
type Relay struct {
	ConfigFile string `long:"configfile" description:"Path to an INI configuration file"`
	Listen     string `long:"listen" description:"Address to accept peer connections on"`
	Metrics    bool   `long:"metrics" description:"Serve prometheus metrics on /metrics"`

	Log LogConfig `group:"Logging"`
}

// DefaultRelay returns the relay configuration with every default set.
func DefaultRelay() Relay {
	return Relay{
		Listen: defaultRelayListen,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadRelay parses args over the relay defaults.
func LoadRelay(args []string) (*Relay, error) {
	cfg := DefaultRelay()
	if err := load(&cfg, &cfg.ConfigFile, args); err != nil {
		return nil, err
	}
	if cfg.Listen == "" {
		return nil, errors.New("listen address is required")
	}
	return &cfg, nil
}

// load pre-parses args to find the config file, applies it, then parses
// args again so the command line wins.
func load(cfg interface{}, configFile *string, args []string) error {
	if _, err := flags.NewParser(cfg, flags.Default).ParseArgs(args); err != nil {
		return err
	}
	if *configFile == "" {
		return nil
	}

	path := *configFile
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := flags.IniParse(path, cfg); err != nil {
		return err
	}

	_, err := flags.NewParser(cfg, flags.Default).ParseArgs(args)
	return err
}

// IsHelp reports whether err is go-flags asking to show usage.
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}
