// Package config loads harness settings from flags, environment variables and config files.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mumoshu/fmharness/pkg/filesapp"
	"github.com/mumoshu/fmharness/pkg/logging"
)

// AppName prefixes the config file, the env file and environment variables.
const AppName = "fmharness"

const (
	KeyControllerAddress = "controller.address"
	KeyControllerCommand = "controller.command"
	KeyIncognito         = "incognito"
	KeyTestName          = "test_name"
	KeyExtensionID       = "extension_id"
	KeyTimeout           = "timeout"
	KeyMetricsAddress    = "metrics.address"
	KeyOutput            = "output"
	KeyVerbose           = "verbose"
	KeyColor             = "color"
	KeyLogToStderr       = "logtostderr"
)

const DefaultTimeout = 5 * time.Minute

// DefaultEnvironment is used when no environment was selected with `env set`.
const DefaultEnvironment = "default"

type Config struct {
	Controller  ControllerConfig
	Incognito   bool
	TestName    string
	ExtensionID string
	Timeout     time.Duration
	Metrics     MetricsConfig
	Log         logging.Options
}

type ControllerConfig struct {
	// Address is a host:port to dial.
	Address string
	// Command is a command line to spawn, talking over its stdin and stdout.
	Command string
}

type MetricsConfig struct {
	// Address serves /metrics when set.
	Address string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyControllerAddress, "")
	v.SetDefault(KeyControllerCommand, "")
	v.SetDefault(KeyIncognito, false)
	v.SetDefault(KeyTestName, "")
	v.SetDefault(KeyExtensionID, filesapp.DefaultExtensionID)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyMetricsAddress, "")
	v.SetDefault(KeyOutput, "text")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyColor, true)
	v.SetDefault(KeyLogToStderr, true)
}

type LoadOptions struct {
	// ConfigFile replaces the lookup of fmharness.yaml in Dir.
	ConfigFile string
	// Dir is searched for fmharness.yaml, the env file and config/environments.
	Dir string
	Log *log.Logger
}

// Load merges config files into v and enables environment variable overrides.
// Missing files in Dir are skipped, a missing ConfigFile is an error.
func Load(v *viper.Viper, o LoadOptions) error {
	logger := o.Log
	if logger == nil {
		logger = log.StandardLogger()
	}
	dir := o.Dir
	if dir == "" {
		dir = "."
	}

	SetDefaults(v)

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.MergeInConfig(); err != nil {
			return errors.Wrapf(err, "loading config file %s", o.ConfigFile)
		}
	} else {
		commonConfigFile := filepath.Join(dir, fmt.Sprintf("%s.yaml", AppName))
		if err := mergeIfExists(v, commonConfigFile, logger); err != nil {
			return err
		}
	}

	envName := NewEnvFile(dir, AppName).GetOrDefault(DefaultEnvironment)
	envConfigFile := filepath.Join(dir, "config", "environments", fmt.Sprintf("%s.yaml", envName))
	if err := mergeIfExists(v, envConfigFile, logger); err != nil {
		return err
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()

	// Substitute the . and - to _,
	replacer := strings.NewReplacer(".", "_", "-", "_")
	v.SetEnvKeyReplacer(replacer)

	return nil
}

func mergeIfExists(v *viper.Viper, file string, logger *log.Logger) error {
	msg := fmt.Sprintf("loading config file %s...", file)
	if !exists(file) {
		logger.Debugf("%smissing", msg)
		return nil
	}
	v.SetConfigType("yaml")
	v.SetConfigFile(file)
	if err := v.MergeInConfig(); err != nil {
		logger.Errorf("%serror", msg)
		return errors.Wrapf(err, "loading config file %s", file)
	}
	logger.Debugf("%sdone", msg)
	return nil
}

// FromViper reads the settings out of v.
func FromViper(v *viper.Viper) Config {
	return Config{
		Controller: ControllerConfig{
			Address: v.GetString(KeyControllerAddress),
			Command: v.GetString(KeyControllerCommand),
		},
		Incognito:   v.GetBool(KeyIncognito),
		TestName:    v.GetString(KeyTestName),
		ExtensionID: v.GetString(KeyExtensionID),
		Timeout:     v.GetDuration(KeyTimeout),
		Metrics: MetricsConfig{
			Address: v.GetString(KeyMetricsAddress),
		},
		Log: logging.Options{
			Output:   v.GetString(KeyOutput),
			Verbose:  v.GetBool(KeyVerbose),
			Color:    v.GetBool(KeyColor),
			ToStderr: v.GetBool(KeyLogToStderr),
			Name:     AppName,
		},
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var result *multierror.Error

	switch {
	case c.Controller.Address == "" && c.Controller.Command == "":
		result = multierror.Append(result, errors.Errorf("one of %s or %s must be set", KeyControllerAddress, KeyControllerCommand))
	case c.Controller.Address != "" && c.Controller.Command != "":
		result = multierror.Append(result, errors.Errorf("only one of %s or %s can be set", KeyControllerAddress, KeyControllerCommand))
	}

	if c.Timeout <= 0 {
		result = multierror.Append(result, errors.Errorf("%s must be positive, got %v", KeyTimeout, c.Timeout))
	}

	if _, err := c.Log.Formatter(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
