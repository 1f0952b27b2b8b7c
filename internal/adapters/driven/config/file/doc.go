// Package file provides TOML-backed configuration with optional hot reload.
package file
