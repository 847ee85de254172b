// Package config manages user-level settings stored at ~/.emx/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the default relocation subdirectory name used during extraction.
package config
