// Package config provides configuration structures and utilities for warcscan.
// It defines sampling, detection, language identification and report
// settings, and loads them from the .warcscan YAML file, WARCSCAN_*
// environment variables and an optional .env file.
package config
