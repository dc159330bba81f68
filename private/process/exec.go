// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package process sets up the configuration, logging and lifetime of swing
// command line processes.
package process

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/private/cfgstruct"
)

// Error is the class of process errors.
var Error = errs.Class("process")

const (
	// EnvPrefix is the prefix of environment variables overriding flags.
	EnvPrefix = "swing"
	// ConfigDirFlag is the name of the flag holding the configuration directory.
	ConfigDirFlag = "config-dir"
	// ConfigFile is the name of the configuration file inside the configuration directory.
	ConfigFile = "config.yaml"
)

// ApplicationDir returns the default directory for application data.
func ApplicationDir(subdir ...string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(append([]string{base}, subdir...)...)
}

// Bind sets up flags on cmd for every tagged field of config.
func Bind(cmd *cobra.Command, config interface{}, opts ...cfgstruct.BindOpt) {
	cfgstruct.Bind(cmd.Flags(), config, opts...)
}

// Exec runs a cobra command, loading configuration from the environment and
// the configuration file before any command runs. It exits the process on
// failure.
func Exec(cmd *cobra.Command) {
	Must(ExecWithContext(context.Background(), cmd))
}

// ExecWithContext is like Exec but uses the provided context and returns
// the error instead of exiting.
func ExecWithContext(ctx context.Context, cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	wrapCommands(cmd)
	return cmd.ExecuteContext(ctx)
}

func wrapCommands(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		wrapCommands(sub)
	}

	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := LoadConfig(cmd); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

// Viper returns a viper instance reading the environment and, when present,
// the configuration file of cmd.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	path := ConfigPath(cmd)
	if path == "" {
		return vip, nil
	}

	vip.SetConfigFile(path)
	if err := vip.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return vip, nil
		}
		return nil, Error.New("unable to read %q: %v", path, err)
	}
	return vip, nil
}

// ConfigPath returns the configuration file location of cmd, or "" when
// cmd has no configuration directory flag.
func ConfigPath(cmd *cobra.Command) string {
	flag := cmd.Flags().Lookup(ConfigDirFlag)
	if flag == nil || flag.Value.String() == "" {
		return ""
	}
	return filepath.Join(os.ExpandEnv(flag.Value.String()), ConfigFile)
}

// LoadConfig sets every flag of cmd that was not given on the command line
// from the environment or the configuration file.
func LoadConfig(cmd *cobra.Command) error {
	vip, err := Viper(cmd)
	if err != nil {
		return err
	}

	var group errs.Group
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || flag.Name == ConfigDirFlag || !vip.IsSet(flag.Name) {
			return
		}
		if err := flag.Value.Set(vip.GetString(flag.Name)); err != nil {
			group.Add(Error.New("invalid value for %s: %v", flag.Name, err))
		}
	})
	return group.Err()
}

// Ctx returns a context derived from cmd that is canceled on interrupt.
func Ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Must exits the process when err is not nil.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
