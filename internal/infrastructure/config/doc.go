// Package config handles loading and validating Hearth Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HEARTH_* environment variables
//   - Validation of required fields (all failures reported at once)
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
// supplied through the environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
