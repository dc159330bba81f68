// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package cfgstruct binds tagged configuration structs to command line flags.
package cfgstruct

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/pflag"
)

// BindOpt is an option for the Bind method.
type BindOpt struct {
	varfn func(vars map[string]string)
}

// ConfDir sets the variable $CONFDIR used in default values.
func ConfDir(path string) BindOpt {
	val := filepath.Clean(os.ExpandEnv(path))
	return BindOpt{varfn: func(vars map[string]string) {
		vars["CONFDIR"] = val
	}}
}

// Prefix sets a prefix for all generated flag names.
func Prefix(prefix string) BindOpt {
	return BindOpt{varfn: func(vars map[string]string) {
		vars["PREFIX"] = prefix
	}}
}

// Bind sets flags on a FlagSet that match the configuration struct
// 'config'. This works by traversing the config struct using the 'reflect'
// package. Fields with a 'default' tag become flags named after the dotted
// kebab-case path of the field.
func Bind(flags *pflag.FlagSet, config interface{}, opts ...BindOpt) {
	ptrtype := reflect.TypeOf(config)
	if ptrtype.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("invalid config type: %#v. Expecting pointer to struct.", config))
	}

	vars := map[string]string{}
	for _, opt := range opts {
		if opt.varfn != nil {
			opt.varfn(vars)
		}
	}

	prefix := ""
	if v, ok := vars["PREFIX"]; ok {
		prefix = v
		if prefix != "" {
			prefix += "."
		}
		delete(vars, "PREFIX")
	}

	bindConfig(flags, prefix, reflect.ValueOf(config).Elem(), vars)
}

func bindConfig(flags *pflag.FlagSet, prefix string, val reflect.Value, vars map[string]string) {
	if val.Kind() != reflect.Struct {
		panic(fmt.Sprintf("invalid config type: %#v. Expecting struct.", val.Interface()))
	}
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldval := val.Field(i)
		if field.PkgPath != "" {
			continue
		}
		flagname := prefix + hyphenate(snakeCase(field.Name))
		if name, ok := field.Tag.Lookup("name"); ok {
			flagname = prefix + name
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if field.Anonymous {
				bindConfig(flags, prefix, fieldval, vars)
			} else {
				bindConfig(flags, flagname+".", fieldval, vars)
			}
			continue
		}

		def, ok := field.Tag.Lookup("default")
		if !ok {
			continue
		}
		def = expand(vars, def)
		help := field.Tag.Get("help")

		fieldaddr := fieldval.Addr().Interface()
		switch field.Type {
		case reflect.TypeOf(time.Duration(0)):
			flags.DurationVar(fieldaddr.(*time.Duration), flagname, mustParseDuration(def), help)
		case reflect.TypeOf(""):
			flags.StringVar(fieldaddr.(*string), flagname, def, help)
		case reflect.TypeOf(int(0)):
			flags.IntVar(fieldaddr.(*int), flagname, mustParseInt(def), help)
		case reflect.TypeOf(int64(0)):
			flags.Int64Var(fieldaddr.(*int64), flagname, int64(mustParseInt(def)), help)
		case reflect.TypeOf(false):
			flags.BoolVar(fieldaddr.(*bool), flagname, mustParseBool(def), help)
		default:
			panic(fmt.Sprintf("invalid field type: %s", field.Type.String()))
		}
		if hidden := field.Tag.Get("hidden"); hidden == "true" {
			setBoolAnnotation(flags, flagname, "hidden")
			_ = flags.MarkHidden(flagname)
		}
		if setup := field.Tag.Get("setup"); setup == "true" {
			setBoolAnnotation(flags, flagname, "setup")
		}
	}
}

func setBoolAnnotation(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, key, []string{"true"}); err != nil {
		panic(fmt.Sprintf("unable to set %s annotation for %s: %v", key, name, err))
	}
}

func expand(vars map[string]string, val string) string {
	return os.Expand(val, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return "$" + key
	})
}

func mustParseInt(val string) int {
	v, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("invalid int default %q: %v", val, err))
	}
	return v
}

func mustParseBool(val string) bool {
	v, err := strconv.ParseBool(val)
	if err != nil {
		panic(fmt.Sprintf("invalid bool default %q: %v", val, err))
	}
	return v
}

func mustParseDuration(val string) time.Duration {
	v, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Sprintf("invalid duration default %q: %v", val, err))
	}
	return v
}

// snakeCase converts CamelCase names into snake_case, keeping acronyms together.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func hyphenate(val string) string {
	return strings.ReplaceAll(val, "_", "-")
}
