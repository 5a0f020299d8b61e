// Package app runs a veilchat client.
//
// Wire builds the long-lived pieces from Config: the logging backend, the
// per-process key pair and the identity registry. Client then walks the
// connection protocol one phase at a time (connect, wait for the relay's
// seed, prompt for a username, register) before entering the steady-state
// loop that feeds typed lines and relayed frames to the session.
package app
