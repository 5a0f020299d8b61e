// Package commands defines the veilchat CLI.
//
// Commands
//
//   - chat     Join a relay as a confidentiality or authenticity client
//   - relay    Run the broadcast relay
//   - version  Print the build version (added by fang)
//
// # Configuration
//
// Every command accepts --config (TOML file), --env-file (dotenv file) and the
// logging flags. Values are layered as defaults, file, VEILCHAT_* environment,
// then flags, and validated before the command runs.
package commands
