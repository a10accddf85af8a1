package app

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/x/vault"
)

// Supported database backends.
const (
	BackendIAVL = "iavl"
	BackendBolt = "bolt"
)

// ConfigFile is the name of the deployment configuration file in the home
// directory.
const ConfigFile = "vault.json"

// DefaultTicker is the vault currency when nothing else is configured.
const DefaultTicker = "IOV"

// DefaultTreasury receives the penalties when no treasury is configured.
// It is derived from a condition that no key can sign for.
var DefaultTreasury = timevault.NewCondition("vault", "treasury", []byte("default")).Address()

// Config holds the deployment settings of vaultd.
//
// Values are resolved in order: defaults, then the JSON file, then the
// command line flags.
type Config struct {
	// DBBackend is either "iavl" or "bolt".
	DBBackend string `json:"db_backend"`
	// DBPath is relative to the home directory unless absolute. An empty
	// path keeps the state in memory.
	DBPath string `json:"db_path"`
	// Vault is the policy applied to every vault.
	Vault vault.Configuration `json:"vault"`
}

// Flags are the command line overrides. Empty values are ignored.
type Flags struct {
	// Config is the JSON file to load. It defaults to <home>/vault.json,
	// which is only loaded when present.
	Config    string
	DBBackend string
	DBPath    string
}

// LoadDefaults populates Config with the reference deployment values.
func (c *Config) LoadDefaults() {
	c.DBBackend = BackendIAVL
	c.DBPath = "data"
	c.Vault = vault.DefaultConfiguration(DefaultTreasury, DefaultTicker)
}

// Validate returns an error if the configuration cannot be used to start
// the application.
func (c *Config) Validate() error {
	var errs error
	switch c.DBBackend {
	case BackendIAVL, BackendBolt:
	default:
		errs = errors.Append(errs, errors.Field("DBBackend", errors.ErrInput, "unknown backend %q", c.DBBackend))
	}
	errs = errors.AppendField(errs, "Vault", c.Vault.Validate())
	return errs
}

// ConfigPath returns the JSON configuration file selected by the flags.
func ConfigPath(home string, f Flags) string {
	if f.Config != "" {
		return f.Config
	}
	return filepath.Join(home, ConfigFile)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the JSON file and finally from the command line flags.
func LoadConfig(home string, f Flags) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	// The default file is optional.
	if err := cfg.parseJSON(ConfigPath(home, f), f.Config != ""); err != nil {
		return nil, err
	}

	cfg.parseFlags(f)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	return cfg, nil
}

// DatabasePath resolves DBPath against the home directory.
func (c *Config) DatabasePath(home string) string {
	if c.DBPath == "" || filepath.IsAbs(c.DBPath) {
		return c.DBPath
	}
	return filepath.Join(home, c.DBPath)
}

// parseJSON overlays values present in the JSON file. Missing keys keep
// their current value.
func (c *Config) parseJSON(path string, required bool) error {
	raw, err := ioutil.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !required:
		return nil
	case os.IsNotExist(err):
		return errors.Wrapf(errors.ErrNotFound, "config %s", path)
	case err != nil:
		return errors.Wrapf(errors.ErrDatabase, "config %s: %s", path, err)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return errors.Wrapf(errors.ErrInput, "config %s: %s", path, err)
	}
	return nil
}

func (c *Config) parseFlags(f Flags) {
	if f.DBBackend != "" {
		c.DBBackend = f.DBBackend
	}
	if f.DBPath != "" {
		c.DBPath = f.DBPath
	}
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := ioutil.WriteFile(path, raw, 0600); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}
