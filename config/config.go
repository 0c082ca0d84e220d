// Package config loads scandisk's settings from an ini file.
//
//	[check]
//	max_depth          = 64
//	recover_lost_files = true
//	repair_lengths     = true
//
//	[image]
//	mmap = true
//
//	[output]
//	format = text
//
//	[log]
//	level = warn
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/errors"
	"github.com/dargueta/scandisk/report"
	"github.com/go-ini/ini"
)

// LogLevels lists the values accepted for `[log] level`.
var LogLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	MaxDepth         int
	RecoverLostFiles bool
	RepairLengths    bool
	// UseMmap selects mapping the image into memory over reading it in full.
	UseMmap  bool
	Format   string
	LogLevel string
	// Path is the file the settings came from, or empty for the defaults.
	Path string
}

// Default returns the settings used when there's no config file.
func Default() *Config {
	return &Config{
		MaxDepth:         check.DefaultMaxDepth,
		RecoverLostFiles: true,
		RepairLengths:    true,
		UseMmap:          true,
		Format:           "text",
		LogLevel:         "warn",
	}
}

// Load reads settings from the ini file at `path`. Missing keys keep their
// defaults, and an empty path gives the defaults. A named file that can't be
// read or holds a bad value is an ErrInvalidArgument.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		message := fmt.Sprintf("can't load config file %s", path)
		return nil, errors.ErrInvalidArgument.WithMessage(message).Wrap(err)
	}
	if err := cfg.apply(file); err != nil {
		return nil, err.WithMessage("in " + path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse reads settings from ini-formatted data.
func Parse(data []byte) (*Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, errors.ErrInvalidArgument.Wrap(err)
	}
	cfg := Default()
	if err := cfg.apply(file); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(file *ini.File) errors.DriverError {
	var err errors.DriverError

	checkSection := file.Section("check")
	if checkSection.HasKey("max_depth") {
		depth, parseErr := checkSection.Key("max_depth").Int()
		if parseErr != nil {
			return errors.ErrInvalidArgument.WithMessage("check.max_depth").Wrap(parseErr)
		}
		c.MaxDepth = depth
	}
	if c.MaxDepth <= 0 {
		message := fmt.Sprintf("check.max_depth must be positive, got %d", c.MaxDepth)
		return errors.ErrInvalidArgument.WithMessage(message)
	}
	if c.RecoverLostFiles, err = boolKey(checkSection, "recover_lost_files", c.RecoverLostFiles); err != nil {
		return err
	}
	if c.RepairLengths, err = boolKey(checkSection, "repair_lengths", c.RepairLengths); err != nil {
		return err
	}
	if c.UseMmap, err = boolKey(file.Section("image"), "mmap", c.UseMmap); err != nil {
		return err
	}
	if c.Format, err = oneOf(file.Section("output"), "format", c.Format, report.Formats); err != nil {
		return err
	}
	if c.LogLevel, err = oneOf(file.Section("log"), "level", c.LogLevel, LogLevels); err != nil {
		return err
	}
	return nil
}

func boolKey(section *ini.Section, name string, current bool) (bool, errors.DriverError) {
	if !section.HasKey(name) {
		return current, nil
	}
	value, err := section.Key(name).Bool()
	if err != nil {
		return current, errors.ErrInvalidArgument.WithMessage(section.Name() + "." + name).Wrap(err)
	}
	return value, nil
}

// oneOf reads a key that must hold one of `candidates`.
func oneOf(section *ini.Section, name, current string, candidates []string) (string, errors.DriverError) {
	if !section.HasKey(name) {
		return current, nil
	}
	value := section.Key(name).String()
	if !slices.Contains(candidates, value) {
		message := fmt.Sprintf(
			"%s.%s must be one of %s, got %q",
			section.Name(),
			name,
			strings.Join(candidates, ", "),
			value)
		return current, errors.ErrInvalidArgument.WithMessage(message)
	}
	return value, nil
}

// CheckOptions converts the settings into options for the checker.
func (c *Config) CheckOptions() check.Options {
	return check.Options{
		MaxDepth:         c.MaxDepth,
		RecoverLostFiles: c.RecoverLostFiles,
		RepairLengths:    c.RepairLengths,
	}
}
