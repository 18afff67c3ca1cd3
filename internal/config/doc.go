// Package config loads the command line settings from the environment and .env files.
package config
