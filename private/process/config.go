// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"gopkg.in/yaml.v3"
)

// SaveConfig writes the current value of every flag in flags to outfile as
// yaml, with values from overrides taking precedence. Hidden flags, setup
// flags and the configuration directory flag are skipped.
func SaveConfig(flags *pflag.FlagSet, outfile string, overrides map[string]interface{}) error {
	settings := map[string]interface{}{}

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Name == ConfigDirFlag || flag.Name == "help" ||
			readBoolAnnotation(flag, "hidden") || readBoolAnnotation(flag, "setup") {
			return
		}
		setNested(settings, flag.Name, flagValue(flag))
	})
	for key, value := range overrides {
		setNested(settings, key, value)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(atomicWrite(outfile, 0600, data))
}

func flagValue(flag *pflag.Flag) interface{} {
	value := flag.Value.String()
	switch flag.Value.Type() {
	case "bool":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	case "int", "int64":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return value
}

func setNested(settings map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := settings[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			settings[part] = next
		}
		settings = next
	}
	settings[parts[len(parts)-1]] = value
}

// readBoolAnnotation is a helper to see if a boolean annotation is set to true on the flag.
func readBoolAnnotation(flag *pflag.Flag, key string) bool {
	annotation := flag.Annotations[key]
	return len(annotation) > 0 && annotation[0] == "true"
}

// atomicWrite is a helper to atomically write the data to the outfile.
func atomicWrite(outfile string, mode os.FileMode, data []byte) (err error) {
	fh, err := os.CreateTemp(filepath.Dir(outfile), filepath.Base(outfile))
	if err != nil {
		return errs.Wrap(err)
	}
	defer func() {
		if err != nil {
			err = errs.Combine(err, fh.Close())
			err = errs.Combine(err, os.Remove(fh.Name()))
		}
	}()
	if _, err := fh.Write(data); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Chmod(mode); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Sync(); err != nil {
		return errs.Wrap(err)
	}
	if err := fh.Close(); err != nil {
		return errs.Wrap(err)
	}
	if err := os.Rename(fh.Name(), outfile); err != nil {
		return errs.Wrap(err)
	}
	return nil
}
