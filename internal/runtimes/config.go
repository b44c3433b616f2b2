package runtimes

import (
	"errors"
	"flag"
	"os"
	"strings"
)

// DefaultVersionEnv overrides the default runtime when -default is not given.
const DefaultVersionEnv = "NODESELECT_DEFAULT_VERSION"

// Config selects where a binary discovers the host's runtimes.
// Exactly one of Dir and Available must be set.
type Config struct {
	Dir       string
	Available string
	Default   string
}

// BindFlags registers -runtimes-dir, -available and -default on fs.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Dir, "runtimes-dir", "", "Directory holding one subdirectory per installed node.js version.")
	fs.StringVar(&c.Available, "available", "", "Comma-separated list of installed node.js versions, used instead of -runtimes-dir.")
	fs.StringVar(&c.Default, "default", os.Getenv(DefaultVersionEnv),
		"Default node.js version. Empty means the highest installed version. Env: "+DefaultVersionEnv+".")
}

// Registry builds the Registry the flags describe.
func (c Config) Registry() (Registry, error) {
	switch {
	case c.Dir != "" && c.Available != "":
		return nil, errors.New("runtimes: set only one of -runtimes-dir and -available")
	case c.Dir != "":
		return NewDir(c.Dir, c.Default), nil
	case c.Available != "":
		return NewStatic(strings.Split(c.Available, ","), c.Default)
	default:
		return nil, errors.New("runtimes: one of -runtimes-dir or -available is required")
	}
}
