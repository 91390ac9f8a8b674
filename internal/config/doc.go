// Package config provides centralized configuration management for tsgen.
// It loads configuration from multiple sources, validates it, and resolves
// the file system paths the generator reads and writes.
//
// # Configuration Sources
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Default values
//  2. A YAML file: $TSGEN_CONFIG, else tsgen.yaml or configs/tsgen.yaml
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern TSGEN_<SECTION>_<KEY>:
//
//	TSGEN_SERVER_PORT=8080
//	TSGEN_LOGGING_LEVEL=debug
//	TSGEN_REFERENCE_GDP_FILE=/srv/data/gdp.csv
//	TSGEN_GENERATION_MAX_ROWS=500000
//
// # Path Management
//
// Relative paths resolve against the directory of the loaded config file,
// so a config file and its reference data can move together:
//
//	paths, err := cfg.GetPaths()
//	source := reference.NewFileSource(paths.GDPFile)
package config
