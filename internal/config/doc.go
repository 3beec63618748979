// Package config provides centralized configuration for the solar analysis
// tools. Values are loaded from three sources in order of precedence:
//
//	1. A YAML configuration file (highest priority)
//	2. Environment variables
//	3. Struct tag defaults (lowest priority)
//
// All environment variables use the SOLAR_ prefix:
//
//	SOLAR_SERVER_PORT=8080
//	SOLAR_LOGGING_LEVEL=debug
//	SOLAR_PATHS_DATA_DIR=/var/lib/solar/data
//	SOLAR_CLEANING_ZSCORE_THRESHOLD=3.5
//
// The configuration file defaults to config.yaml in the working directory
// and can be overridden with SOLAR_CONFIG_FILE.
//
// Load validates the result and resolves relative paths against the
// working directory, so the rest of the application can treat every path
// as absolute.
package config
