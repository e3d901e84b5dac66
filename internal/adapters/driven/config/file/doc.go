// Package file provides the TOML-backed application ConfigStore.
//
// Keys use dot notation: the TOML table [server] with addr = ":8080" is
// read as "server.addr". Environment variables can override file values.
package file
