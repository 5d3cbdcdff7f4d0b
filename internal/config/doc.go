// Package config provides centralized configuration management for the curator.
// It handles loading configuration from multiple sources, validation, and path
// resolution for inputs, curated outputs and reports.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// The file is taken from EASMS_CONFIG, or config.yaml or configs/config.yaml
// in the working directory.
//
// # Environment Variables
//
// All environment variables follow the pattern EASMS_<SECTION>_<FIELD>:
//
//	EASMS_LOGGING_LEVEL=debug
//	EASMS_SCORING_WORKERS=8
//	EASMS_OUTPUT_LABEL_COLUMN=LABEL
//	EASMS_SERVER_PORT=8080
//
// # Validation
//
// Every field carries validator/v10 constraints that are checked at load time.
// A failed check is returned as a CONFIG application error.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.GetPaths(cfg.Paths)
package config
