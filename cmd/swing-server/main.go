// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/private/cfgstruct"
	"github.com/swingcharts/swing/private/process"
	"github.com/swingcharts/swing/server"
	"github.com/swingcharts/swing/swingdb"
)

// Config is the configuration of the swing-server process.
type Config struct {
	server.Config
	Log process.LogConfig
}

var (
	rootCmd = &cobra.Command{
		Use:   "swing-server",
		Short: "Chart repository server",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the chart repository server",
		RunE:  cmdRun,
	}
	setupCmd = &cobra.Command{
		Use:         "setup",
		Short:       "Create config files",
		RunE:        cmdSetup,
		Annotations: map[string]string{"type": "setup"},
	}

	runCfg   Config
	setupCfg Config

	confDir string
)

func init() {
	defaultConfDir := findConfigDir(process.ApplicationDir("swing", "server"))
	rootCmd.PersistentFlags().StringVar(&confDir, process.ConfigDirFlag, defaultConfDir, "main directory for swing server configuration")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	process.Bind(runCmd, &runCfg, cfgstruct.ConfDir(defaultConfDir))
	process.Bind(setupCmd, &setupCfg, cfgstruct.ConfDir(defaultConfDir))
}

func cmdRun(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()

	log, err := process.NewLogger(runCfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer zap.ReplaceGlobals(log)()

	if err := runCfg.Validate(); err != nil {
		return err
	}

	db, err := swingdb.Open(ctx, log.Named("db"), runCfg.Database)
	if err != nil {
		return errs.New("Error starting master database: %+v", err)
	}

	if err := db.MigrateToLatest(ctx); err != nil {
		return errs.Combine(errs.New("Error creating tables for master database: %+v", err), db.Close())
	}

	blobs, err := server.OpenBlobs(ctx, log, runCfg.Storage)
	if err != nil {
		return errs.Combine(errs.New("Error opening archive storage: %+v", err), db.Close())
	}

	peer, err := server.New(log, db, blobs, runCfg.Config)
	if err != nil {
		return errs.Combine(err, blobs.Close(), db.Close())
	}
	defer func() { err = errs.Combine(err, peer.Close()) }()

	return peer.Run(ctx)
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	setupDir, err := filepath.Abs(confDir)
	if err != nil {
		return err
	}

	configFile := filepath.Join(setupDir, process.ConfigFile)
	if _, err := os.Stat(configFile); err == nil {
		return errs.New("swing server configuration already exists (%v)", configFile)
	}

	if err := os.MkdirAll(setupDir, 0700); err != nil {
		return err
	}

	return process.SaveConfig(cmd.Flags(), configFile, nil)
}

// findConfigDir returns the configuration directory given on the command
// line or in the environment, so that it can be used for flag defaults.
func findConfigDir(defaultDir string) string {
	dir := defaultDir
	if env := os.Getenv("SWING_CONFIG_DIR"); env != "" {
		dir = env
	}

	flagName := "--" + process.ConfigDirFlag
	args := os.Args[1:]
	for i, arg := range args {
		if arg == flagName && i+1 < len(args) {
			dir = args[i+1]
		}
		if value, ok := strings.CutPrefix(arg, flagName+"="); ok {
			dir = value
		}
	}
	return os.ExpandEnv(dir)
}

func main() {
	process.Exec(rootCmd)
}
