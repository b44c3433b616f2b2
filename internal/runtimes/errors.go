package runtimes

import "errors"

var (
	// ErrNoRuntimes indicates no runtime is installed and no default was configured.
	ErrNoRuntimes = errors.New("no node.js runtimes installed and no default version configured")

	// ErrInvalidDefault indicates the configured default runtime version does not parse.
	ErrInvalidDefault = errors.New("invalid default node.js version")

	ErrDefaultNotInstalled = errors.New("default node.js version is not installed")
)
