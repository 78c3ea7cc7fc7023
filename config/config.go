// Package config loads the settings of the perforate command from a YAML
// file, the environment and command-line flags.
package config

import (
	"os"
	"strings"

	"github.com/nickng/perforator/interp"
	"github.com/nickng/perforator/perforate"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	FileName  = ".perforate"
	EnvPrefix = "PERFORATE"

	PassesKey        = "passes"
	SelectKey        = "select"
	FuncsKey         = "funcs"
	JobsKey          = "jobs"
	FormatKey        = "format"
	PrintIRKey       = "print-ir"
	LogFileKey       = "log.file"
	LogDebugKey      = "log.debug"
	LogMaxSizeKey    = "log.max-size"
	LogMaxBackupsKey = "log.max-backups"
	BenchMaxStepsKey = "bench.max-steps"

	DefaultPasses        = "loop-perforation-pass"
	DefaultFormat        = "text"
	DefaultLogMaxSize    = 10
	DefaultLogMaxBackups = 3
)

var ErrInvalid = errors.New("invalid configuration")

// Formats are the accepted values of the format key.
var Formats = []string{"text", "table", "yaml"}

// Config is the settings of a perforate run.
type Config struct {
	Passes  string   `mapstructure:"passes"`
	Select  string   `mapstructure:"select"`
	Funcs   []string `mapstructure:"funcs"`
	Jobs    int      `mapstructure:"jobs"`
	Format  string   `mapstructure:"format"`
	PrintIR bool     `mapstructure:"print-ir"`

	Log struct {
		File       string `mapstructure:"file"`
		Debug      bool   `mapstructure:"debug"`
		MaxSize    int    `mapstructure:"max-size"`
		MaxBackups int    `mapstructure:"max-backups"`
	} `mapstructure:"log"`

	Bench struct {
		MaxSteps int `mapstructure:"max-steps"`
	} `mapstructure:"bench"`
}

// Init sets the defaults, search paths and environment binding of v.
// The configuration file is searched for in dirs, or in the current and
// home directories if dirs is empty.
func Init(v *viper.Viper, dirs ...string) {
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{"."}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home)
		}
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(PassesKey, DefaultPasses)
	v.SetDefault(SelectKey, perforate.SelectTopLevel.String())
	v.SetDefault(FuncsKey, []string{})
	v.SetDefault(JobsKey, 0)
	v.SetDefault(FormatKey, DefaultFormat)
	v.SetDefault(PrintIRKey, false)
	v.SetDefault(LogFileKey, "")
	v.SetDefault(LogDebugKey, false)
	v.SetDefault(LogMaxSizeKey, DefaultLogMaxSize)
	v.SetDefault(LogMaxBackupsKey, DefaultLogMaxBackups)
	v.SetDefault(BenchMaxStepsKey, interp.DefaultMaxSteps)
}

// Load reads the configuration file of v, if there is one, and returns the
// validated settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "cannot read config")
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the values of c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Passes) == "" {
		return errors.Wrap(ErrInvalid, "no passes")
	}
	if _, err := perforate.ParseSelection(c.Select); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Jobs < 0 {
		return errors.Wrapf(ErrInvalid, "jobs %d < 0", c.Jobs)
	}
	if c.Bench.MaxSteps < 0 {
		return errors.Wrapf(ErrInvalid, "bench.max-steps %d < 0", c.Bench.MaxSteps)
	}
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalid, "format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
}

// Selection returns the parsed loop selection.
func (c *Config) Selection() perforate.Selection {
	s, _ := perforate.ParseSelection(c.Select)
	return s
}
