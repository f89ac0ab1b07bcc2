// Package config provides the gateway configuration model and its loading.
//
// Configuration is assembled in layers, later layers winning:
//
//   - built-in defaults (DefaultConfig)
//   - an optional YAML file, with ${VAR} and ${VAR:-default} substitution
//   - environment variables, including values read from .env files
//
// The result is checked by Validate before use. Configuration is read
// once at startup and never reloaded.
//
// Example:
//
//	cfg, err := config.Load("configs/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
