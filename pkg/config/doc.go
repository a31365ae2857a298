// Package config provides configuration loading, validation, and default
// application for DataScope.
//
// Configuration is read from a YAML file, merged with defaults, optionally
// overridden from DATASCOPE_* environment variables, and validated before
// use. Validation collects every problem it finds rather than stopping at
// the first one.
package config
