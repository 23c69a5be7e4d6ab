// Package config loads and validates the application configuration.
//
// Configuration is layered with the usual precedence: command-line flags
// override environment variables (prefix VANISH_, dots become underscores),
// which override the YAML config file, which overrides built-in defaults.
//
// A minimal config file:
//
//	server:
//	  port: 5709
//	storage:
//	  backend: local
//	  path: ./data
//	lifecycle:
//	  done_ttl: 300
//	  error_ttl: 10
package config
