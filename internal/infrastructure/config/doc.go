// Package config loads the service configuration from a YAML file,
// applies MIZAN_* environment overrides on top, fills defaults, and
// validates the result once at startup.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//
// Secrets (JWT signing key, broker and InfluxDB credentials) belong in
// environment variables rather than the file, and the file itself
// should be readable only by the service user.
package config
