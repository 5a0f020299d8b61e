// Package main runs the veilchat relay on its own, without the chat client.
//
// It is the same relay as "veilchat relay" and takes the same flags:
//
//	--listen      TCP listen address (default 0.0.0.0:3000)
//	--metrics     address for the Prometheus /metrics endpoint
//	--advertise   announce the relay over mDNS as _veilchat._tcp
//	--instance    mDNS instance name (default "veilchat")
//
// Behaviour
//
//   - Registrations are held in memory and lost on exit.
//   - Every register and message frame is sent to every connected client,
//     including the one that sent it.
//   - A client that cannot keep up is disconnected.
//   - SIGHUP reopens the log file; SIGINT and SIGTERM shut down.
package main
