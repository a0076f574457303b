package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = "dwarfindex"
	configFile string = "config.yml"

	// DefaultLookupCacheSize is the number of symbolized addresses kept in
	// memory when lookup-cache-size is not set.
	DefaultLookupCacheSize = 4096
)

// SubstitutePathRule describes a rule for substitution of path to source code file.
type SubstitutePathRule struct {
	// Directory path will be substituted if it matches `From`.
	From string
	// Path to which substitution is performed.
	To string
}

// SubstitutePathRules is a slice of source code path substitution rules.
type SubstitutePathRules []SubstitutePathRule

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`
	// Source code path substitution rules.
	SubstitutePath SubstitutePathRules `yaml:"substitute-path"`

	// SkipBrokenUnits makes the converter skip compile units with
	// malformed debug info instead of failing.
	SkipBrokenUnits bool `yaml:"skip-broken-units"`

	// NormalizeBackslash converts backslashes in file paths to forward
	// slashes, for binaries built on Windows.
	NormalizeBackslash bool `yaml:"normalize-backslash"`

	// LookupCacheSize is the number of symbolized addresses the symbolizer
	// keeps in memory.
	LookupCacheSize *int `yaml:"lookup-cache-size,omitempty"`

	// Source list line-number color (3/4 bit color codes as defined
	// here: https://en.wikipedia.org/wiki/ANSI_escape_code#Colors)
	SourceListLineColor int `yaml:"source-list-line-color"`
}

// CacheSize returns the configured lookup cache size.
func (c *Config) CacheSize() int {
	if c == nil || c.LookupCacheSize == nil || *c.LookupCacheSize <= 0 {
		return DefaultLookupCacheSize
	}
	return *c.LookupCacheSize
}

// LoadConfig attempts to populate a Config object from the config.yml file.
// A default configuration file is created if none exists.
func LoadConfig() (*Config, error) {
	err := createConfigPath()
	if err != nil {
		return &Config{}, fmt.Errorf("could not create config directory: %v", err)
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to get config file path: %v", err)
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return &Config{}, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer f.Close()

	return readConfig(f)
}

func readConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return &Config{}, fmt.Errorf("unable to decode config file: %v", err)
	}

	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f io.Writer) error {
	_, err := io.WriteString(f,
		`# Configuration file for dwarfindex.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Uncomment the following line and set your preferred ANSI foreground color
# for file:line locations printed by the shell (if unset, default is 34,
# dark blue) See https://en.wikipedia.org/wiki/ANSI_escape_code#3/4_bit
# source-list-line-color: 34

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]

# Define sources path substitution rules. Can be used to rewrite a source path stored
# in program's debug information, if the sources were moved to a different place
# after compilation.
substitute-path:
  # - {from: path, to: path}

# Uncomment the following line to keep going when a compile unit has
# malformed debug info, its addresses will not be indexed.
# skip-broken-units: true

# Uncomment the following line to convert backslashes in file names to
# forward slashes.
# normalize-backslash: true

# Number of symbolized addresses kept in memory.
# lookup-cache-size: 4096
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
// The configuration directory is $XDG_CONFIG_HOME/dwarfindex, or
// ~/.config/dwarfindex when XDG_CONFIG_HOME is not set.
func GetConfigFilePath(file string) (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return path.Join(xdg, configDir, file), nil
	}

	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, ".config", configDir, file), nil
}

// SubstitutePath applies the first matching rule of rules to path.
// A rule matches if From is equal to path or is a directory prefix of it.
// A rule with an empty From matches every relative path, To is prepended
// to it.
func SubstitutePath(path string, rules SubstitutePathRules) string {
	for _, r := range rules {
		from, to := r.From, r.To

		if from == "" {
			if !strings.HasPrefix(path, "/") {
				if to == "" {
					return path
				}
				return joinSlash(to, path)
			}
			continue
		}

		if path == from {
			return to
		}

		if !strings.HasSuffix(from, "/") {
			from += "/"
		}
		if strings.HasPrefix(path, from) {
			if to == "" {
				return path[len(from):]
			}
			return joinSlash(to, path[len(from):])
		}
	}
	return path
}

func joinSlash(dir, file string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + file
	}
	return dir + "/" + file
}
