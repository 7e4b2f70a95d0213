// Package config loads apidriver settings from a config file, the
// environment and an optional .env file.
//
// Files are searched for in the working directory in ConfigFilenames order
// unless an explicit path is given. Every key can be overridden with an
// APIDRIVER_ prefixed environment variable, e.g. APIDRIVER_BASE_URL.
package config
