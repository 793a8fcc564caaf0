package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"logcompare/internal/config"
)

// resolveConfig layers defaults, logcompare.toml, flags and the positional
// directory, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	flags := cmd.Flags()

	cfgPath, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfgPath == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return config.Config{}, err
		}
		if ok {
			cfgPath = found
		}
	}

	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return config.Config{}, err
		}
	}

	if flags.Changed("fields") {
		value, err := flags.GetString("fields")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get fields flag: %w", err)
		}
		cfg.Fields = parseFieldsFlag(cfg.Fields, value)
	}
	if flags.Changed("lenient") {
		if cfg.Lenient, err = flags.GetBool("lenient"); err != nil {
			return config.Config{}, fmt.Errorf("failed to get lenient flag: %w", err)
		}
	}
	if flags.Changed("context") {
		if cfg.Context, err = flags.GetInt("context"); err != nil {
			return config.Config{}, fmt.Errorf("failed to get context flag: %w", err)
		}
	}
	if len(args) == 1 {
		cfg.Dir = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// parseFieldsFlag replaces current with the listed names, or appends them
// when value starts with "+".
func parseFieldsFlag(current []string, value string) []string {
	value = strings.TrimSpace(value)
	var out []string
	if strings.HasPrefix(value, "+") {
		out = append(out, current...)
		value = value[1:]
	}
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
