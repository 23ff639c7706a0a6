package http

import "github.com/rs/zerolog"

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Provider ContentProvider
	Database Pinger

	// Authority prepended to every /content/* path
	Authority string

	// Application info
	Version string

	Logger zerolog.Logger
}
