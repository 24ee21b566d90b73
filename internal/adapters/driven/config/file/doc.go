// Package file provides file-based configuration loading.
//
// Configuration lives in a single TOML file holding pipeline tuning
// and the league roster. Missing values fall back to defaults; a
// missing file yields the default configuration.
package file
