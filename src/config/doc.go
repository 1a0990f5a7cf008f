// Package config defines the configuration for a node.
//
// Regardless of how a node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. The command line
// fills it from flags, from FLOODNODE_* environment variables, and from an
// optional floodnode.toml in Config.DataDir. Environment variables matter
// because the test harness starts the binary without arguments.
//
// Logs always go to stderr. Stdout is reserved for protocol messages.
package config
